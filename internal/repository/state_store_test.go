package repository

import (
	"context"
	"testing"
)

func TestMemoryStateStore_ReadMissing(t *testing.T) {
	s := NewMemoryStateStore()
	v, ok, err := s.Read(context.Background(), "user:1:ctf_game_state")
	if err != nil || ok || v != nil {
		t.Errorf("missing key: want (nil, false, nil), got (%v, %v, %v)", v, ok, err)
	}
}

func TestMemoryStateStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateStore()

	in := []byte(`{"score":100}`)
	if err := s.Write(ctx, "k", in); err != nil {
		t.Fatal(err)
	}
	in[0] = 'X'

	out, ok, err := s.Read(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("want stored value, got ok=%v err=%v", ok, err)
	}
	if string(out) != `{"score":100}` {
		t.Errorf("stored value must not alias caller buffer, got %s", out)
	}

	out[0] = 'Y'
	again, _, _ := s.Read(ctx, "k")
	if string(again) != `{"score":100}` {
		t.Errorf("returned value must not alias stored buffer, got %s", again)
	}
}

func TestMemoryStateStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateStore()
	s.Write(ctx, "a", []byte("1"))
	s.Write(ctx, "b", []byte("2"))
	s.Write(ctx, "c", []byte("3"))

	if err := s.Clear(ctx, "a", "b", "missing"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Read(ctx, "a"); ok {
		t.Error("a should be cleared")
	}
	if _, ok, _ := s.Read(ctx, "c"); !ok {
		t.Error("c should survive")
	}
}

func TestRedisStateStore_Key(t *testing.T) {
	s := NewRedisStateStore(nil, "ctf:")
	if got := s.key("user:7:ctf_settings"); got != "ctf:user:7:ctf_settings" {
		t.Errorf("want prefixed key, got %s", got)
	}
}
