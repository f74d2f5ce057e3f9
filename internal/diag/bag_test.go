package diag

import (
	"testing"

	"blockfix/internal/source"
)

func TestBagLimit(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(New(SevInfo, BlkUnclosed, source.At(0, 1), "first")) {
		t.Fatal("first add should succeed")
	}
	if bag.Add(New(SevInfo, BlkUnclosed, source.At(0, 2), "second")) {
		t.Fatal("second add should hit the limit")
	}
	if bag.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", bag.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	bag := NewBag(0)
	bag.Add(New(SevInfo, BlkUnclosed, source.At(0, 9), "late"))
	bag.Add(New(SevInfo, BlkUnclosed, source.At(0, 3), "early"))
	bag.Add(NewError(BlkStructuralAmbiguity, source.At(0, 3), "ambiguous"))
	bag.Add(New(SevInfo, BlkUnclosed, source.At(0, 3), "early again"))

	bag.Sort()
	items := bag.Items()
	if items[0].Code != BlkStructuralAmbiguity {
		t.Fatalf("errors should sort before infos on the same line, got %s", items[0].Code.ID())
	}
	if items[len(items)-1].Message != "late" {
		t.Fatalf("expected last item to be the later line, got %q", items[len(items)-1].Message)
	}

	bag.Dedup()
	if bag.Len() != 3 {
		t.Fatalf("expected 3 items after dedup, got %d", bag.Len())
	}
	if !bag.HasErrors() || !bag.HasCode(BlkUnclosed) {
		t.Fatal("expected error and unclosed code to be present")
	}
}

func TestCodeIDs(t *testing.T) {
	tests := map[Code]string{
		BlkUnclosed:     "BLK1001",
		RenApplied:      "REN2001",
		IOFileNotFound:  "IO4001",
		CfgInvalidToken: "CFG5001",
		UnknownCode:     "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d: expected %s, got %s", code, want, got)
		}
	}
	if Code(1999).Title() != "Unknown error" {
		t.Error("unknown codes should fall back to the default title")
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportWarning(BagReporter{Bag: bag}, BlkStrayClose, source.At(0, 4), "stray").
		WithNote(source.At(0, 1), "opened here")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected a single emitted diagnostic, got %d", bag.Len())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatal("expected note to be carried")
	}
}
