package domain

import "testing"

func TestSanitizeName(t *testing.T) {
	long := make([]byte, MaxNameLen*2)
	for i := range long {
		long[i] = 'x'
	}

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain name kept", in: "alice", want: "alice"},
		{name: "whitespace trimmed", in: "  bob  ", want: "bob"},
		{name: "empty defaults to Anonymous", in: "", want: DefaultName},
		{name: "whitespace-only defaults to Anonymous", in: "   ", want: DefaultName},
		{name: "overlong name capped", in: string(long), want: string(long[:MaxNameLen])},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeName(tc.in); got != tc.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeMetadata(t *testing.T) {
	in := map[string]string{
		"device":   "mobile",
		"locale":   "en-US",
		"evil":     "dropped",
		"timezone": "",
	}
	got := SanitizeMetadata(in)

	if got == nil {
		t.Fatal("SanitizeMetadata returned nil")
	}
	if got["device"] != "mobile" || got["locale"] != "en-US" {
		t.Errorf("whitelisted fields not kept: %v", got)
	}
	if _, ok := got["evil"]; ok {
		t.Error("non-whitelisted field was stored")
	}
	if _, ok := got["timezone"]; ok {
		t.Error("empty field was stored")
	}
}

func TestSanitizeMetadataCapsValues(t *testing.T) {
	long := make([]byte, MaxMetaValueLen*3)
	for i := range long {
		long[i] = 'a'
	}
	got := SanitizeMetadata(map[string]string{"agent": string(long)})
	if len(got["agent"]) != MaxMetaValueLen {
		t.Errorf("agent value length = %d, want %d", len(got["agent"]), MaxMetaValueLen)
	}
}

func TestDefaultIdentity(t *testing.T) {
	id := DefaultIdentity()
	if id.Name != DefaultName {
		t.Errorf("default name = %q, want %q", id.Name, DefaultName)
	}
	if id.Metadata == nil || len(id.Metadata) != 0 {
		t.Errorf("default metadata = %v, want empty non-nil map", id.Metadata)
	}
}
