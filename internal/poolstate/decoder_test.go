package poolstate

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodeSlot0RoundTrip(t *testing.T) {
	// sqrt price for ~1:1 with matching decimals is 2^96.
	in := Slot0{
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Tick:         204510,
		ProtocolFee:  500,
		LPFee:        3000,
	}

	out, err := DecodeSlot0(EncodeSlot0(in))
	if err != nil {
		t.Fatalf("DecodeSlot0 failed: %v", err)
	}

	if out.SqrtPriceX96.Cmp(in.SqrtPriceX96) != 0 {
		t.Errorf("sqrt price: got %s, want %s", out.SqrtPriceX96, in.SqrtPriceX96)
	}
	if out.Tick != in.Tick {
		t.Errorf("tick: got %d, want %d", out.Tick, in.Tick)
	}
	if out.ProtocolFee != in.ProtocolFee {
		t.Errorf("protocol fee: got %d, want %d", out.ProtocolFee, in.ProtocolFee)
	}
	if out.LPFee != in.LPFee {
		t.Errorf("lp fee: got %d, want %d", out.LPFee, in.LPFee)
	}
}

func TestDecodeSlot0NegativeTick(t *testing.T) {
	// Raw 24-bit 0xFFFFFF is -1 in two's complement.
	w := new(big.Int).Lsh(big.NewInt(0xFFFFFF), 160)
	w.Or(w, big.NewInt(1)) // nonzero sqrt price so the word is not "empty"

	out, err := DecodeSlot0(common.LeftPadBytes(w.Bytes(), 32))
	if err != nil {
		t.Fatalf("DecodeSlot0 failed: %v", err)
	}
	if out.Tick != -1 {
		t.Errorf("tick: got %d, want -1", out.Tick)
	}
}

func TestDecodeSlot0TickBounds(t *testing.T) {
	cases := []struct {
		name string
		tick int32
	}{
		{"min", -1 << 23},
		{"max", 1<<23 - 1},
		{"zero", 0},
		{"negative", -887272},
		{"positive", 887272},
	}

	for _, tc := range cases {
		in := Slot0{SqrtPriceX96: big.NewInt(1), Tick: tc.tick}
		out, err := DecodeSlot0(EncodeSlot0(in))
		if err != nil {
			t.Fatalf("%s: DecodeSlot0 failed: %v", tc.name, err)
		}
		if out.Tick != tc.tick {
			t.Errorf("%s: tick got %d, want %d", tc.name, out.Tick, tc.tick)
		}
	}
}

func TestDecodeSlot0WrongLength(t *testing.T) {
	if _, err := DecodeSlot0([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short word")
	}
}

func TestStateSlotDeterministic(t *testing.T) {
	poolA := common.HexToHash("0x01")
	poolB := common.HexToHash("0x02")

	slotA1 := StateSlot(poolA, DefaultPoolsSlot)
	slotA2 := StateSlot(poolA, DefaultPoolsSlot)
	slotB := StateSlot(poolB, DefaultPoolsSlot)

	if slotA1 != slotA2 {
		t.Errorf("same inputs produced different slots: %s vs %s", slotA1.Hex(), slotA2.Hex())
	}
	if slotA1 == slotB {
		t.Errorf("different pools mapped to the same slot %s", slotA1.Hex())
	}
	if slotA1 == StateSlot(poolA, DefaultPoolsSlot+1) {
		t.Error("different base slots mapped to the same slot")
	}
}

func TestOffsetSlot(t *testing.T) {
	base := common.BigToHash(big.NewInt(100))
	got := OffsetSlot(base, LiquidityOffset)
	want := common.BigToHash(big.NewInt(103))
	if got != want {
		t.Errorf("offset slot: got %s, want %s", got.Hex(), want.Hex())
	}
}
