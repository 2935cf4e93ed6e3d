package version

import (
	"strings"
	"testing"
)

func TestUserAgentIdentifiesProduct(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, Product+"/") {
		t.Fatalf("unexpected user agent %q", ua)
	}
	if !strings.Contains(Full(), Version) {
		t.Fatalf("full version %q should contain %q", Full(), Version)
	}
}
