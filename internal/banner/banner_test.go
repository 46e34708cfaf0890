package banner

import (
	"strings"
	"testing"
)

func TestBannerIncludesVersion(t *testing.T) {
	out := Banner("v1.2.3")
	if !strings.Contains(out, "v1.2.3") {
		t.Errorf("banner missing version: %q", out)
	}
	if !strings.Contains(out, "kombucha") {
		t.Errorf("banner missing art: %q", out)
	}
}
