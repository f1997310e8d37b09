package crdt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

type unknownChange struct{}

func (unknownChange) Character() Char { return Char{} }
func (unknownChange) remoteChange()   {}

func changeValues(changes []RemoteChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		switch c := c.(type) {
		case Add:
			out[i] = "+" + c.Char.Value
		case Remove:
			out[i] = "-" + c.Char.Value
		}
	}
	return out
}

func TestLocalToRemote(t *testing.T) {
	tests := []struct {
		description     string
		text            string
		change          LocalChange
		expected        []string
		expectedContent string
	}{
		{description: "insertion",
			text:   "ac",
			change: LocalChange{From: Pos{0, 1}, To: Pos{0, 1}, Text: "b"},
			expected: []string{"+b"}, expectedContent: "abc"},

		{description: "deletion",
			text:   "abc",
			change: LocalChange{From: Pos{0, 0}, To: Pos{0, 2}},
			expected: []string{"-a", "-b"}, expectedContent: "c"},

		{description: "replace removes before adding",
			text:   "abc",
			change: LocalChange{From: Pos{0, 1}, To: Pos{0, 2}, Text: "XY"},
			expected: []string{"-b", "+X", "+Y"}, expectedContent: "aXYc"},

		{description: "paste across lines",
			text:   "ab\ncd",
			change: LocalChange{From: Pos{0, 1}, To: Pos{1, 1}, Text: "1\n2"},
			expected: []string{"-b", "-\n", "-c", "+1", "+\n", "+2"}, expectedContent: "a1\n2d"},
	}

	for _, tc := range tests {
		doc := newDocument(t, 1, tc.text)

		changes, err := LocalToRemote(doc, 2, 3, tc.change)
		if err != nil {
			t.Errorf("(%s) error: %v\n", tc.description, err)
			continue
		}

		got := changeValues(changes)
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
		if doc.String() != tc.expectedContent {
			t.Errorf("(%s) got = %q, expected = %q\n", tc.description, doc.String(), tc.expectedContent)
		}
	}
}

func TestLocalToRemote_Errors(t *testing.T) {
	tests := []struct {
		description string
		change      LocalChange
		err         error
	}{
		{description: "inverted columns", change: LocalChange{From: Pos{0, 2}, To: Pos{0, 1}}, err: ErrInvertedRange},
		{description: "inverted lines", change: LocalChange{From: Pos{1, 0}, To: Pos{0, 1}, Text: "x"}, err: ErrInvertedRange},
		{description: "range mismatch", change: LocalChange{From: Pos{0, 0}, To: Pos{0, 9}}, err: ErrRangeMismatch},
		{description: "replace with an invalid insertion point", change: LocalChange{From: Pos{1, 0}, To: Pos{1, 9}, Text: "x"}, err: ErrRangeMismatch},
	}

	for _, tc := range tests {
		doc := newDocument(t, 1, "ab\ncd")

		_, err := LocalToRemote(doc, 2, 1, tc.change)
		if !errors.Is(err, tc.err) {
			t.Errorf("(%s) got error %v, expected %v\n", tc.description, err, tc.err)
		}
		if doc.String() != "ab\ncd" {
			t.Errorf("(%s) document changed: %q\n", tc.description, doc.String())
		}
	}
}

func TestRemoteToLocal(t *testing.T) {
	origin := newDocument(t, 1, "ab")
	chars := origin.Characters()

	doc := New()
	doc.Init(chars[:1])

	change, err := RemoteToLocal(doc, Add{Char: chars[1]})
	if err != nil {
		t.Fatalf("error: %v\n", err)
	}
	expected := &LocalChange{From: Pos{0, 1}, To: Pos{0, 1}, Text: "b"}
	if !cmp.Equal(change, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(change, expected))
	}

	change, err = RemoteToLocal(doc, Remove{Char: chars[0]})
	if err != nil {
		t.Fatalf("error: %v\n", err)
	}
	expected = &LocalChange{From: Pos{0, 0}, To: Pos{0, 1}}
	if !cmp.Equal(change, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(change, expected))
	}

	if _, err := RemoteToLocal(doc, unknownChange{}); !errors.Is(err, ErrUnknownRemoteChange) {
		t.Errorf("got error %v, expected %v\n", err, ErrUnknownRemoteChange)
	}
}

func TestEncodeRemoteChange(t *testing.T) {
	char := Char{Position: Position{{1, 0}, {1, 1}}, Lamport: 1, Value: "h"}

	data, err := EncodeRemoteChange(Add{Char: char})
	if err != nil {
		t.Fatalf("error: %v\n", err)
	}

	expected := `["add",[[[1,0],[1,1]],1,"h"]]`
	if string(data) != expected {
		t.Errorf("got = %s, expected = %s\n", data, expected)
	}

	change, err := DecodeRemoteChange([]byte(`["remove",[[[1,0],[1,1]],1,"h"]]`))
	if err != nil {
		t.Fatalf("error: %v\n", err)
	}
	if !cmp.Equal(change, RemoteChange(Remove{Char: char})) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(change, RemoteChange(Remove{Char: char})))
	}
}

func TestDecodeRemoteChange_Errors(t *testing.T) {
	tests := []struct {
		description string
		data        string
		err         error
	}{
		{description: "unknown tag", data: `["move",[[[1,0]],1,"h"]]`, err: ErrUnknownRemoteChange},
		{description: "not a pair", data: `["add"]`, err: ErrUnknownRemoteChange},
		{description: "empty position", data: `["add",[[],1,"h"]]`, err: ErrMalformedChar},
		{description: "digit out of range", data: `["add",[[[300,1]],1,"h"]]`, err: ErrMalformedChar},
		{description: "more than one character", data: `["add",[[[1,1]],1,"hi"]]`, err: ErrMalformedChar},
	}

	for _, tc := range tests {
		_, err := DecodeRemoteChange([]byte(tc.data))
		if !errors.Is(err, tc.err) {
			t.Errorf("(%s) got error %v, expected %v\n", tc.description, err, tc.err)
		}
	}
}
