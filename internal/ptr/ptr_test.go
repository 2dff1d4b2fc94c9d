package ptr_test

import (
	"testing"

	"github.com/myrjola/overload/internal/ptr"
)

func TestRef(t *testing.T) {
	reps := 8
	p := ptr.Ref(reps)
	reps = 10
	if *p != 8 {
		t.Errorf("Ref() = %d, want 8 after modifying the original", *p)
	}
}
