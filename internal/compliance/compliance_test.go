package compliance

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalog_NonExistentDir(t *testing.T) {
	cat, err := LoadCatalog("/nonexistent/compliance/dir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refs := cat.References(1); refs != nil {
		t.Errorf("expected no references from an empty catalog, got %v", refs)
	}
}

func TestLoadCatalog_MergesEntries(t *testing.T) {
	dir := t.TempDir()

	ssh := `
entries:
  - check_id: 1
    references:
      - standard: CIS
        item: "5.2.10"
        title: "Set MaxAuthTries to 4 or Less"
`
	proc := `
entries:
  - check_id: 2
    references:
      - standard: CIS
        item: "5.2.17"
`
	os.WriteFile(filepath.Join(dir, "ssh.yaml"), []byte(ssh), 0644)
	os.WriteFile(filepath.Join(dir, "process.yaml"), []byte(proc), 0644)
	os.WriteFile(filepath.Join(dir, "_draft.yaml"), []byte(`entries: [{check_id: 1, references: [{standard: NIST, item: "AC-1"}]}]`), 0644)

	cat, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs := cat.References(1)
	if len(refs) != 1 || refs[0].Item != "5.2.10" {
		t.Errorf("expected one CIS 5.2.10 reference for check 1, got %v", refs)
	}

	refs2 := cat.References(2)
	if len(refs2) != 1 || refs2[0].Standard != "CIS" {
		t.Errorf("expected one CIS reference for check 2, got %v", refs2)
	}

	if refs := cat.References(999); refs != nil {
		t.Errorf("expected no references for an unmapped check, got %v", refs)
	}
}
