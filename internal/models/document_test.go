package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_IsNewerThan(t *testing.T) {
	base := Document{ID: "a", NodeID: "node-b", Timestamp: 5, Data: json.RawMessage(`"m"`)}

	tests := []struct {
		name  string
		other func(d Document) Document
		want  bool
	}{
		{
			name:  "higher timestamp wins",
			other: func(d Document) Document { d.Timestamp = 4; return d },
			want:  true,
		},
		{
			name:  "lower timestamp loses",
			other: func(d Document) Document { d.Timestamp = 6; return d },
			want:  false,
		},
		{
			name:  "equal timestamp, higher node id wins",
			other: func(d Document) Document { d.NodeID = "node-a"; return d },
			want:  true,
		},
		{
			name:  "equal timestamp and node, data breaks tie",
			other: func(d Document) Document { d.Data = json.RawMessage(`"a"`); return d },
			want:  true,
		},
		{
			name:  "tombstone wins over identical live state",
			other: func(d Document) Document { d.Deleted = true; return d },
			want:  false,
		},
		{
			name:  "equal data, type breaks tie",
			other: func(d Document) Document { d.Type = "task"; return d },
			want:  false,
		},
		{
			name:  "only metadata differs",
			other: func(d Document) Document { d.Metadata = []byte(`{"tag":"a"}`); return d },
			want:  false,
		},
		{
			name:  "identical states",
			other: func(d Document) Document { return d },
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			other := tt.other(base)
			assert.Equal(t, tt.want, d.IsNewerThan(&other))
			if tt.want {
				assert.False(t, other.IsNewerThan(&d), "order must be antisymmetric")
			} else if !d.ContentEqual(&other) {
				assert.True(t, other.IsNewerThan(&d), "one of two different states must win")
			}
		})
	}
}

func TestDocument_ContentEqual(t *testing.T) {
	a := &Document{
		ID:        "a",
		Type:      "note",
		Data:      json.RawMessage(`{"x": 1, "y": [1, 2]}`),
		Version:   1,
		Timestamp: 3,
		NodeID:    "n1",
	}

	b := a.Clone()
	b.Data = json.RawMessage(`{"x":1,"y":[1,2]}`)
	b.Version = 7
	b.Timestamp = 9
	b.NodeID = "n2"
	b.UpdatedAt = time.Now()
	assert.True(t, a.ContentEqual(b), "service fields and whitespace are ignored")

	c := a.Clone()
	c.Deleted = true
	assert.False(t, a.ContentEqual(c))

	d := a.Clone()
	d.Type = "task"
	assert.False(t, a.ContentEqual(d))

	assert.True(t, (*Document)(nil).ContentEqual(nil))
	assert.False(t, a.ContentEqual(nil))

	empty := &Document{ID: "e"}
	null := &Document{ID: "e", Data: json.RawMessage("null")}
	assert.True(t, empty.ContentEqual(null))
}

func TestDocument_Clone(t *testing.T) {
	orig := &Document{ID: "a", Data: json.RawMessage(`"v"`), Metadata: []byte("m")}
	clone := orig.Clone()
	require.Equal(t, orig, clone)

	clone.Data[1] = 'X'
	clone.Metadata[0] = 'X'
	assert.Equal(t, `"v"`, string(orig.Data))
	assert.Equal(t, "m", string(orig.Metadata))

	assert.Nil(t, (*Document)(nil).Clone())
}

func TestSeqCheckpoint(t *testing.T) {
	seq, err := ParseSeqCheckpoint(NewSeqCheckpoint(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	for _, cp := range []Checkpoint{nil, Checkpoint("null"), Checkpoint("")} {
		seq, err := ParseSeqCheckpoint(cp)
		require.NoError(t, err)
		assert.Zero(t, seq)
	}

	_, err = ParseSeqCheckpoint(Checkpoint(`{"seq":-1}`))
	assert.Error(t, err)
	_, err = ParseSeqCheckpoint(Checkpoint(`"abc"`))
	assert.Error(t, err)
}

func TestWriteError(t *testing.T) {
	conflict := &WriteError{ID: "a", Status: StatusConflict}
	assert.True(t, conflict.IsConflict())
	assert.Equal(t, "a: write conflict", conflict.Error())

	failed := &WriteError{ID: "b", Err: errors.New("boom")}
	assert.False(t, failed.IsConflict())
	assert.Equal(t, "b: boom", failed.Error())
}
