package paging

import "testing"

func TestNewMetaBounds(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		totalCount int
		wantPage   int
		wantPages  int
		wantPrev   bool
		wantNext   bool
	}{
		{"first of many", 1, 10, 35, 1, 4, false, true},
		{"middle", 2, 10, 35, 2, 4, true, true},
		{"last", 4, 10, 35, 4, 4, true, false},
		{"beyond last clamps", 99, 10, 35, 4, 4, true, false},
		{"below first clamps", 0, 10, 35, 1, 4, false, true},
		{"empty collection", 1, 10, 0, 1, 1, false, false},
		{"single page", 1, 10, 7, 1, 1, false, false},
		{"department grid", 2, DepartmentPageSize, 20, 2, 3, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeta(tt.page, tt.pageSize, tt.totalCount)
			if m.Page != tt.wantPage || m.TotalPages != tt.wantPages {
				t.Fatalf("page=%d pages=%d, want %d/%d", m.Page, m.TotalPages, tt.wantPage, tt.wantPages)
			}
			if m.HasPrev != tt.wantPrev || m.HasNext != tt.wantNext {
				t.Fatalf("prev=%t next=%t, want %t/%t", m.HasPrev, m.HasNext, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	m := NewMeta(3, 9, 100)
	if got := m.Offset(); got != 18 {
		t.Fatalf("offset = %d, want 18", got)
	}
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]int{"": 1, "abc": 1, "-2": 1, "0": 1, "1": 1, "7": 7} {
		if got := ParsePage(in); got != want {
			t.Fatalf("ParsePage(%q) = %d, want %d", in, got, want)
		}
	}
}
