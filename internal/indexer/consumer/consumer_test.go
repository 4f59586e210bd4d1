package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
)

type recordingMutator struct {
	updated []string
	removed []string
}

func (m *recordingMutator) Update(r record.Record) { m.updated = append(m.updated, r.ID) }
func (m *recordingMutator) Remove(id string)       { m.removed = append(m.removed, id) }

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandleMessage(t *testing.T) {
	m := &recordingMutator{}
	handle := HandleMessage(m)
	ctx := context.Background()
	rec := record.Record{ID: "r1", Text: "learn swift", Kind: record.KindStudy, Timestamp: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)}

	up := Upsert(rec)
	require.NoError(t, handle(ctx, []byte(up.Key), encode(t, up.Value)))
	del := Delete("r2")
	require.NoError(t, handle(ctx, []byte(del.Key), encode(t, del.Value)))

	assert.Equal(t, []string{"r1"}, m.updated)
	assert.Equal(t, []string{"r2"}, m.removed)
}

func TestHandleMessageSkipsBadEvents(t *testing.T) {
	m := &recordingMutator{}
	handle := HandleMessage(m)
	ctx := context.Background()

	assert.NoError(t, handle(ctx, nil, []byte("not json")))
	assert.NoError(t, handle(ctx, nil, []byte(`{"op":"upsert"}`)))
	assert.NoError(t, handle(ctx, nil, []byte(`{"op":"upsert","record":{"id":"x","text":"","kind":"note"}}`)))
	assert.NoError(t, handle(ctx, nil, []byte(`{"op":"delete"}`)))
	assert.Error(t, handle(ctx, nil, []byte(`{"op":"truncate"}`)))

	assert.Empty(t, m.updated)
	assert.Empty(t, m.removed)
}
