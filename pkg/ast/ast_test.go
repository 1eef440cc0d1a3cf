package ast

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		symbol rune
		want   Kind
	}{
		{'F', KindDraw},
		{'f', KindMove},
		{'[', KindPush},
		{']', KindPop},
		{'+', KindTurnRight},
		{'-', KindTurnLeft},
		{'&', KindPitchDown},
		{'^', KindPitchUp},
		{'\\', KindRollLeft},
		{'/', KindRollRight},
		{'|', KindTurnAround},
		{'_', KindWidthUp},
		{'!', KindWidthDown},
		{';', KindMaterialNext},
		{',', KindMaterialPrev},
		{'A', KindUnknown},
		{'X', KindUnknown},
		{'~', KindUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.symbol), func(t *testing.T) {
			if got := KindOf(tt.symbol); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	c := Command{Kind: KindDraw, Symbol: 'F', Args: []float64{230, 2.5}}
	if got := c.String(); got != "F(230, 2.5)" {
		t.Errorf("got %q", got)
	}
	c = Command{Kind: KindPush, Symbol: '['}
	if got := c.String(); got != "[" {
		t.Errorf("got %q", got)
	}
}

func TestCommandArg(t *testing.T) {
	c := Command{Args: []float64{1, 2}}
	if v, ok := c.Arg(1); !ok || v != 2 {
		t.Errorf("Arg(1) = %v, %v", v, ok)
	}
	if _, ok := c.Arg(2); ok {
		t.Error("Arg(2) should not exist")
	}
}
