// SPDX-License-Identifier: MPL-2.0

package dns

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRecordType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    RecordType
		wantErr bool
	}{
		{"a", TypeA, false},
		{" AAAA ", TypeAAAA, false},
		{"cname", TypeCNAME, false},
		{"PTR", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRecordType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecordType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecordType) {
				t.Errorf("error %v is not ErrInvalidRecordType", err)
			}
			if got != tt.want {
				t.Errorf("ParseRecordType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		kind ContentKind
		str  string
	}{
		{"81.25.37.180", ContentIPv4, "81.25.37.180"},
		{"2001:0db8::0001", ContentIPv6, "2001:db8::1"},
		{"v=spf1 redirect=_spf.yandex.ru", ContentText, "v=spf1 redirect=_spf.yandex.ru"},
		{"kstep.me.", ContentText, "kstep.me."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			c := ParseContent(tt.in)
			if c.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", c.Kind(), tt.kind)
			}
			if c.String() != tt.str {
				t.Errorf("String() = %q, want %q", c.String(), tt.str)
			}
			_, isAddr := c.Addr()
			if isAddr != (tt.kind != ContentText) {
				t.Errorf("Addr() ok = %v", isAddr)
			}
		})
	}

	if !ParseContent("2001:db8::1").Equal(ParseContent("2001:0db8:0::1")) {
		t.Error("equivalent IPv6 contents compare unequal")
	}
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	data := `{"record_id":6028793,"type":"MX","domain":"kstep.me","subdomain":"@",
		"fqdn":"kstep.me","content":"mx.yandex.ru.","ttl":21600,"priority":"10"}`
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if r.ID != 6028793 || r.Type != TypeMX || r.TTL != 21600 {
		t.Errorf("record = %+v", r)
	}
	if r.Priority == nil || *r.Priority != 10 {
		t.Errorf("Priority = %v, want 10", r.Priority)
	}
	if r.Port != nil {
		t.Errorf("Port = %v, want nil", *r.Port)
	}

	for _, prio := range []string{`""`, `"n/a"`, `null`} {
		var a Record
		if err := json.Unmarshal([]byte(`{"record_id":1,"type":"A","priority":`+prio+`}`), &a); err != nil {
			t.Fatalf("Unmarshal(priority %s) error: %v", prio, err)
		}
		if a.Priority != nil {
			t.Errorf("priority %s decoded as %d, want nil", prio, *a.Priority)
		}
	}
}

func TestRecord_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rec  Record
		want string
	}{
		{Record{Domain: "kstep.me", Subdomain: "home", FQDN: "home.kstep.me"}, "home.kstep.me"},
		{Record{Domain: "kstep.me", Subdomain: "home"}, "home.kstep.me"},
		{Record{Domain: "kstep.me", Subdomain: "@"}, "kstep.me"},
	}
	for _, tt := range tests {
		if got := tt.rec.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestFindRecord(t *testing.T) {
	t.Parallel()

	records := []Record{
		{ID: 1, Type: TypeMX, Subdomain: "home"},
		{ID: 2, Type: TypeA, Subdomain: "@"},
		{ID: 3, Type: TypeA, Subdomain: "home"},
	}
	r, err := FindRecord(records, TypeA, "home")
	if err != nil || r.ID != 3 {
		t.Errorf("FindRecord() = %+v, %v", r, err)
	}
	if _, err := FindRecord(records, TypeAAAA, "home"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("FindRecord() error = %v, want ErrRecordNotFound", err)
	}
}

func TestEditRequest_ValuesOnlySetFields(t *testing.T) {
	t.Parallel()

	content := "1.2.3.4"
	req := EditRequest{Domain: "kstep.me", RecordID: 42, Content: &content}
	v := req.Values()
	if len(v) != 3 {
		t.Errorf("Values() = %v, want domain, record_id and content only", v)
	}
	if v.Get("record_id") != "42" || v.Get("content") != "1.2.3.4" {
		t.Errorf("Values() = %v", v)
	}
}

func TestRecord_EditRequest(t *testing.T) {
	t.Parallel()

	prio := 10
	r := Record{ID: 7, Type: TypeMX, Domain: "kstep.me", Subdomain: "@", Content: ParseContent("mx.yandex.ru."), TTL: 3600, Priority: &prio}
	v := r.EditRequest().Values()
	want := map[string]string{
		"domain":    "kstep.me",
		"record_id": "7",
		"subdomain": "@",
		"ttl":       "3600",
		"content":   "mx.yandex.ru.",
		"priority":  "10",
	}
	for k, val := range want {
		if v.Get(k) != val {
			t.Errorf("%s = %q, want %q", k, v.Get(k), val)
		}
	}
	if v.Has("port") || v.Has("admin_mail") {
		t.Errorf("unset fields sent: %v", v)
	}
}

func TestNewAddRequest_Defaults(t *testing.T) {
	t.Parallel()

	v := NewAddRequest(TypeA, "kstep.me").Values()
	if v.Get("subdomain") != "@" || v.Get("ttl") != "21600" || v.Get("priority") != "10" || v.Get("type") != "A" {
		t.Errorf("Values() = %v", v)
	}
	for _, k := range []string{"admin_mail", "content", "weight", "port", "target"} {
		if !v.Has(k) {
			t.Errorf("Values() misses %q", k)
		}
	}
}

func TestRecord_AddAndDeleteRequest(t *testing.T) {
	t.Parallel()

	r := Record{ID: 9, Type: TypeTXT, Domain: "kstep.me", Content: ParseContent("hello")}
	add := r.AddRequest()
	if add.Subdomain != "@" || add.TTL != 21600 || add.Priority != 10 || add.Content != "hello" {
		t.Errorf("AddRequest() = %+v", add)
	}
	del := r.DeleteRequest()
	if del.Domain != "kstep.me" || del.RecordID != 9 {
		t.Errorf("DeleteRequest() = %+v", del)
	}
}

func TestErrorCode_Description(t *testing.T) {
	t.Parallel()

	if got := CodeBadToken.Description(); got != "invalid token" {
		t.Errorf("Description() = %q", got)
	}
	if got := ErrorCode("brand_new").Description(); got != "unknown error (brand_new)" {
		t.Errorf("Description() = %q", got)
	}
	if !CodeNoAuth.IsAuth() || CodeOccupied.IsAuth() {
		t.Error("IsAuth() misclassifies codes")
	}
}
