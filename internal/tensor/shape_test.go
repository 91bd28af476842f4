package tensor

import (
	"errors"
	"testing"
)

func TestShape_NumElements(t *testing.T) {
	cases := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}
	for _, c := range cases {
		if got := c.shape.NumElements(); got != c.want {
			t.Errorf("NumElements(%v) = %d, want %d", c.shape, got, c.want)
		}
	}
}

func TestShape_Validate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate({2,3}) = %v, want nil", err)
	}
	err := (Shape{2, -1}).Validate()
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Validate({2,-1}) = %v, want ErrShapeMismatch", err)
	}
}

func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	if len(strides) != len(want) {
		t.Fatalf("ComputeStrides = %v, want %v", strides, want)
	}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("ComputeStrides = %v, want %v", strides, want)
			break
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	t.Run("SameShape", func(t *testing.T) {
		out, needs, err := BroadcastShapes(Shape{2, 3}, Shape{2, 3})
		if err != nil {
			t.Fatal(err)
		}
		if needs {
			t.Error("same shapes should not need broadcasting")
		}
		if !out.Equal(Shape{2, 3}) {
			t.Errorf("got %v, want [2 3]", out)
		}
	})

	t.Run("LeftPad", func(t *testing.T) {
		out, needs, err := BroadcastShapes(Shape{3, 1}, Shape{4})
		if err != nil {
			t.Fatal(err)
		}
		if !needs {
			t.Error("expected broadcasting")
		}
		if !out.Equal(Shape{3, 4}) {
			t.Errorf("got %v, want [3 4]", out)
		}
	})

	t.Run("ScalarLike", func(t *testing.T) {
		out, _, err := BroadcastShapes(Shape{2, 3}, Shape{1})
		if err != nil {
			t.Fatal(err)
		}
		if !out.Equal(Shape{2, 3}) {
			t.Errorf("got %v, want [2 3]", out)
		}
	})

	t.Run("Incompatible", func(t *testing.T) {
		_, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4})
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("got %v, want ErrShapeMismatch", err)
		}
	})
}

func TestShape_CloneIndependence(t *testing.T) {
	orig := Shape{2, 3}
	clone := orig.Clone()
	clone[0] = 99
	if orig[0] != 2 {
		t.Error("Clone aliases the original shape")
	}
}
