package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCreateFolderRequest_RootSerializesNullParent(t *testing.T) {
	data, err := json.Marshal(CreateFolderRequest{Name: "docs"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"parent_id":null`) {
		t.Errorf("expected parent_id:null, got: %s", string(data))
	}
}

func TestUpdateFolderRequest_OmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(UpdateFolderRequest{Name: StringPtr("renamed")})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if got := string(data); got != `{"name":"renamed"}` {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", `"2024-05-01T12:00:00Z"`, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"zoneless micros", `"2024-05-01T12:00:00.5"`, time.Date(2024, 5, 1, 12, 0, 0, 500000000, time.UTC)},
		{"space separated", `"2024-05-01 12:00:00"`, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestTimestamp_NullAndGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
		t.Fatalf("null should be accepted: %v", err)
	}
	if !ts.IsZero() {
		t.Error("null should leave the zero time")
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestFolderContents_DecodesEmbeddedFolder(t *testing.T) {
	body := `{"id":3,"name":"docs","path":"/docs","parent_id":null,
		"created_at":"2024-05-01T12:00:00","updated_at":"2024-05-01T12:00:00",
		"subfolders":[{"id":4,"name":"a","path":"/docs/a","parent_id":3}],
		"files":[]}`
	var c FolderContents
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.ID != 3 || c.Name != "docs" || !c.IsRoot() {
		t.Errorf("unexpected folder: %+v", c.Folder)
	}
	if len(c.Subfolders) != 1 || *c.Subfolders[0].ParentID != 3 {
		t.Errorf("unexpected subfolders: %+v", c.Subfolders)
	}
	if c.IsEmpty() {
		t.Error("contents with a subfolder are not empty")
	}
}
