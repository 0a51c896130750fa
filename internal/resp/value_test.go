package resp

import (
	"testing"
)

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"nil", Nil(), true},
		{"integer", Integer(42), true},
		{"bulk string", String("hello"), true},
		{"empty declared array", Array(0), true},
		{"filled array", ArrayOf(String("a"), String("b")), true},
		{"underfilled array", Array(2), false},
		{
			"nested incomplete child",
			ArrayOf(String("a"), Array(1)),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppendFillsArrayInOrder(t *testing.T) {
	root := Array(3)

	root.Append(String("SET"))
	root.Append(String("key"))
	if root.IsComplete() {
		t.Fatal("array complete after 2 of 3 elements")
	}

	root.Append(String("value"))
	if !root.IsComplete() {
		t.Fatal("array incomplete after 3 of 3 elements")
	}

	want := []string{"SET", "key", "value"}
	for i, w := range want {
		if got := root.Elem(i).Text(); got != w {
			t.Errorf("elem[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestAppendDescendsIntoIncompleteChild(t *testing.T) {
	// Root declares 2 elements; the first is itself an array of 2.
	root := Array(2)
	root.Append(Array(2))

	// The next two values belong to the nested child, not the root.
	root.Append(String("inner1"))
	root.Append(String("inner2"))

	if root.Len() != 1 {
		t.Fatalf("root.Len() = %d, want 1 (values must fill the child first)", root.Len())
	}
	child := root.Elem(0)
	if !child.IsComplete() || child.Len() != 2 {
		t.Fatalf("child incomplete after 2 appends: len=%d", child.Len())
	}

	// Only now does the root collect its second element.
	root.Append(Integer(7))
	if !root.IsComplete() {
		t.Fatal("root incomplete after final append")
	}
	if got := root.Elem(1).Int64(); got != 7 {
		t.Errorf("root elem[1] = %d, want 7", got)
	}
}

func TestAppendPanicsOnCompleteValue(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"complete array", ArrayOf(String("x"))},
		{"bulk string", String("x")},
		{"nil", Nil()},
		{"integer", Integer(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Append did not panic")
				}
			}()
			v := tt.value
			v.Append(String("extra"))
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := ArrayOf(String("abc"), Integer(5))
	clone := orig.Clone()

	if !clone.Equal(orig) {
		t.Fatal("clone not equal to original")
	}

	// Mutating the clone's bulk bytes must not touch the original.
	clone.Elem(0).Bytes()[0] = 'X'
	if orig.Elem(0).Text() != "abc" {
		t.Errorf("original mutated through clone: %q", orig.Elem(0).Text())
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil vs nil", Nil(), Nil(), true},
		{"nil vs integer", Nil(), Integer(0), false},
		{"equal integers", Integer(9), Integer(9), true},
		{"unequal integers", Integer(9), Integer(-9), false},
		{"equal strings", String("a"), BulkString([]byte("a")), true},
		{"unequal strings", String("a"), String("b"), false},
		{"equal arrays", ArrayOf(Integer(1)), ArrayOf(Integer(1)), true},
		{"declared size differs", Array(1), Array(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
