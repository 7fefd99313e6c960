package paperlens

import (
	"errors"
	"testing"

	"github.com/brunobiangulo/paperlens/assistant"
	"github.com/brunobiangulo/paperlens/mindmap"
)

func TestCheckEnumerated(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		text    string
		wantErr string
	}{
		{name: "numbered list", kind: KindInsights, text: "1. First\n2. Second"},
		{name: "number after heading", kind: KindResearchIdeas, text: "GAPS:\n1. [Gap]: x"},
		{name: "multi digit", kind: KindInsights, text: "10. Tenth"},
		{name: "empty insights", kind: KindInsights, text: "", wantErr: "No insights found in the response"},
		{name: "blank research", kind: KindResearchIdeas, text: "  \n\t", wantErr: "No research ideas found in the response"},
		{name: "prose insights", kind: KindInsights, text: "The paper shows 1. things", wantErr: "Invalid insights format"},
		{name: "indented number", kind: KindResearchIdeas, text: "  1. indented", wantErr: "Invalid research ideas format"},
		{name: "parenthesis", kind: KindInsights, text: "1) First", wantErr: "Invalid insights format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEnumerated(tt.kind, tt.text)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckEnumerated(%q) = %v, want nil", tt.text, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("CheckEnumerated(%q) = nil, want %q", tt.text, tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err, tt.wantErr)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("error %v should match ErrFormat", err)
			}
		})
	}
}

func TestHandleResponseMindMap(t *testing.T) {
	r, m, err := HandleResponse(KindMindMap, testMindMap)
	if err != nil {
		t.Fatalf("HandleResponse returned error: %v", err)
	}
	if r.Status != StatusComplete || r.Content != MindMapSuccess || r.Kind != KindMindMap {
		t.Errorf("result = %+v", r)
	}
	if m == nil || m.Metadata.MainTopic != "Cardiology" {
		t.Errorf("mind map = %+v", m)
	}

	_, _, err = HandleResponse(KindMindMap, `{"nodes":[],"relationships":[],"metadata":{}}`)
	if !errors.Is(err, mindmap.ErrValidation) {
		t.Fatalf("error = %v, want mindmap.ErrValidation", err)
	}
	if want := "Invalid mind map data: " + mindmap.MsgNoNodes; err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
	var mmErr *MindMapError
	if !errors.As(err, &mmErr) {
		t.Errorf("error %T should be *MindMapError", err)
	}
}

func TestHandleResponseMindMapErrorText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "no json",
			text: "I could not build a map.",
			want: "Invalid mind map data: invalid character 'I' looking for beginning of value",
		},
		{
			name: "truncated object",
			text: `{"nodes":[`,
			want: "Invalid mind map data: unexpected end of JSON input",
		},
		{
			name: "missing metadata",
			text: `{"nodes":[{"id":"1","label":"A","type":"main"}],"relationships":[]}`,
			want: "Invalid mind map data: " + mindmap.MsgMetadata,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := HandleResponse(KindMindMap, tt.text)
			if err == nil {
				t.Fatal("HandleResponse returned nil error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestHandleResponseText(t *testing.T) {
	r, _, err := HandleResponse(KindInsights, "\n1. Finding\n")
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if r.Content != "1. Finding" {
		t.Errorf("insights content = %q", r.Content)
	}

	r, _, err = HandleResponse(KindAchievements, "Free text, no list.\n")
	if err != nil {
		t.Fatalf("achievements: %v", err)
	}
	if r.Content != "Free text, no list.\n" || r.Status != StatusComplete {
		t.Errorf("achievements = %+v", r)
	}

	if _, _, err := HandleResponse(KindAchievements, " \n"); !errors.Is(err, assistant.ErrNoResponse) {
		t.Errorf("blank achievements error = %v, want ErrNoResponse", err)
	}
	if _, _, err := HandleResponse(Kind("OTHER"), "x"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%s) = %s, %v", k, got, err)
		}
		if Prompt(k) == "" {
			t.Errorf("%s has no prompt", k)
		}
		if k.Title() == string(k) {
			t.Errorf("%s has no title", k)
		}
	}
	if _, err := ParseKind("mind_map"); err == nil {
		t.Error("kind names are case sensitive")
	}
}
