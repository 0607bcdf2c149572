package portal

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEnvelopeDecode(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want GradesPayload
	}{
		{
			name: "absent payload decodes to zero value",
			env:  Envelope{Status: StatusSuccess},
		},
		{
			name: "null payload decodes to zero value",
			env:  Envelope{Status: StatusSuccess, Data: json.RawMessage(`null`)},
		},
		{
			name: "missing sub-collections default to empty",
			env:  Envelope{Status: StatusSuccess, Data: json.RawMessage(`{}`)},
		},
		{
			name: "populated payload",
			env: Envelope{
				Status: StatusSuccess,
				Data:   json.RawMessage(`{"grades":[{"id":1,"subject_name":"Maths","grade":14.5,"max_grade":20}],"statistics":{"average_grade":14.5,"best_grade":14.5}}`),
			},
			want: GradesPayload{
				Grades:     []Grade{{ID: 1, SubjectName: "Maths", Grade: 14.5, MaxGrade: 20}},
				Statistics: GradeStatistics{AverageGrade: 14.5, BestGrade: 14.5},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got GradesPayload
			if err := tt.env.Decode(&got); err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestFlexIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		data string
		want FlexID
	}{
		{"number", `{"id": 7}`, "7"},
		{"string", `{"id": "bulletin_3"}`, "bulletin_3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				ID FlexID `json:"id"`
			}
			if err := json.Unmarshal([]byte(tt.data), &out); err != nil {
				t.Fatalf("Unmarshal() failed: %v", err)
			}
			if out.ID != tt.want {
				t.Errorf("ID = %q; want %q", out.ID, tt.want)
			}
		})
	}
}

func TestFormatGrade(t *testing.T) {
	tests := []struct {
		name       string
		grade, max float64
		want       string
	}{
		{"on 20", 14.2, 20, "14.2/20"},
		{"integral", 15, 20, "15/20"},
		{"missing scale defaults to 20", 12.5, 0, "12.5/20"},
		{"on 10", 8, 10, "8/10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatGrade(tt.grade, tt.max); got != tt.want {
				t.Errorf("FormatGrade() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestGradeMax(t *testing.T) {
	if got := (Grade{MaxGrade: 10}).Max(); got != 10 {
		t.Errorf("Max() = %v; want 10", got)
	}
	if got := (Grade{}).Max(); got != 20 {
		t.Errorf("Max() = %v; want 20", got)
	}
}

func TestProfileChildByID(t *testing.T) {
	prof := Profile{Children: []Child{{ID: 1, Name: "Awa"}, {ID: 2, Name: "Moussa"}}}

	if ch, ok := prof.ChildByID(2); !ok || ch.Name != "Moussa" {
		t.Errorf("ChildByID(2) = %+v, %v; want Moussa, true", ch, ok)
	}
	if _, ok := prof.ChildByID(3); ok {
		t.Error("ChildByID(3) = true; want false")
	}
}
