package core

import (
	"errors"
	"testing"
	"time"
)

func TestRecordMapper_Map(t *testing.T) {
	mapper := NewRecordMapper(nil)
	fs := NewFieldSet(DefaultColumns, []string{
		"42", "Jane", "Doe", "jane@example.com", "Female", "555-0100", "Canada", "1985-07-14",
	})

	rec, err := mapper.Map(fs)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	want := Record{
		ID:        42,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Gender:    "Female",
		ContactNo: "555-0100",
		Country:   "Canada",
		DOB:       time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
	}
	if !rec.DOB.Equal(want.DOB) {
		t.Errorf("DOB = %v, want %v", rec.DOB, want.DOB)
	}
	rec.DOB = want.DOB
	if rec != want {
		t.Errorf("Map = %+v, want %+v", rec, want)
	}
}

func TestRecordMapper_EmptyValuesKeepZero(t *testing.T) {
	mapper := NewRecordMapper(nil)
	fs := NewFieldSet(DefaultColumns, []string{"1", "Only"})

	rec, err := mapper.Map(fs)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if rec.ID != 1 || rec.FirstName != "Only" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.LastName != "" || !rec.DOB.IsZero() {
		t.Errorf("Missing columns should stay zero: %+v", rec)
	}
}

func TestRecordMapper_Whitespace(t *testing.T) {
	mapper := NewRecordMapper(nil)
	fs := NewFieldSet(DefaultColumns, []string{" 7 ", " x ", "   ", "", "", "", "", "  "})

	rec, err := mapper.Map(fs)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if rec.ID != 7 {
		t.Errorf("ID = %d, want 7", rec.ID)
	}
	// 字符串字段保留原始内容
	if rec.FirstName != " x " || rec.LastName != "   " {
		t.Errorf("String fields should keep raw values: %q %q", rec.FirstName, rec.LastName)
	}
	if !rec.DOB.IsZero() {
		t.Errorf("Blank dob should stay zero, got %v", rec.DOB)
	}
}

func TestRecordMapper_DateLayouts(t *testing.T) {
	want := time.Date(1990, 3, 25, 0, 0, 0, 0, time.UTC)
	mapper := NewRecordMapper(nil)

	for _, s := range []string{"1990-03-25", "25-03-1990", "03/25/1990", "3/25/1990"} {
		rec, err := mapper.Map(NewFieldSet([]string{"dob"}, []string{s}))
		if err != nil {
			t.Errorf("Map(dob=%q) failed: %v", s, err)
			continue
		}
		if !rec.DOB.Equal(want) {
			t.Errorf("Map(dob=%q) = %v, want %v", s, rec.DOB, want)
		}
	}

	custom := NewRecordMapper([]string{"2006.01.02"})
	rec, err := custom.Map(NewFieldSet([]string{"dob"}, []string{"1990.03.25"}))
	if err != nil || !rec.DOB.Equal(want) {
		t.Errorf("Custom layout: got %v, %v", rec.DOB, err)
	}
}

func TestRecordMapper_Errors(t *testing.T) {
	mapper := NewRecordMapper(nil)

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"非数字ID", "id", "abc"},
		{"小数ID", "id", "1.5"},
		{"非法日期", "dob", "not-a-date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mapper.Map(NewFieldSet([]string{tt.field}, []string{tt.value}))
			var mappingErr *MappingError
			if !errors.As(err, &mappingErr) {
				t.Fatalf("Expected MappingError, got %v", err)
			}
			if mappingErr.Field != tt.field || mappingErr.Value != tt.value {
				t.Errorf("Unexpected error detail: %+v", mappingErr)
			}
			if Kind(err) != KindMapping {
				t.Errorf("Kind = %s, want %s", Kind(err), KindMapping)
			}
		})
	}
}

func TestRecordMapper_UnknownColumnsIgnored(t *testing.T) {
	mapper := NewRecordMapper(nil)
	rec, err := mapper.Map(NewFieldSet([]string{"id", "nickname"}, []string{"3", "jj"}))
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if rec.ID != 3 {
		t.Errorf("Expected ID 3, got %d", rec.ID)
	}
}

func TestRecord_Value(t *testing.T) {
	rec := Record{ID: 9, Country: "Japan", DOB: time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		column string
		want   string
		ok     bool
	}{
		{"id", "9", true},
		{"country", "Japan", true},
		{"dob", "2000-01-02", true},
		{"email", "", true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		got, ok := rec.Value(tt.column)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Value(%s) = %q, %v; want %q, %v", tt.column, got, ok, tt.want, tt.ok)
		}
	}

	if v, _ := (Record{}).Value("dob"); v != "" {
		t.Errorf("Zero DOB should render empty, got %q", v)
	}
}
