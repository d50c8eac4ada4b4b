package access

import (
	"context"
	"testing"
)

func TestGoodFromContext(t *testing.T) {
	upper := TranslatorFunc(func(string, map[string]string) string { return "X" })
	ctx := WithContext(context.TODO(), upper)
	if s := FromContext(ctx).Translate("a", nil); s != "X" {
		t.Errorf("FromContext(ctx).Translate() => %q, want %q", s, "X")
	}
}

func TestBadFromContext(t *testing.T) {
	ctx := context.TODO()
	if s := FromContext(ctx).Translate("hi @who", map[string]string{"who": "you"}); s != "hi you" {
		t.Errorf("FromContext(ctx).Translate() => %q, want %q", s, "hi you")
	}
}
