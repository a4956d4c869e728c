package analytics

import (
	"regexp"

	"github.com/reflexlabs/reflex/internal/domain"
)

var mobilePattern = regexp.MustCompile(`(?i)\b(android|iphone|ipad|ipod|mobile|blackberry|opera mini|windows phone)\b`)

// sniffDevice classifies the session's device from its user-agent
// string. Anything that does not look mobile counts as desktop.
func sniffDevice(userAgent string) domain.DeviceInfo {
	deviceType := domain.DeviceDesktop
	if mobilePattern.MatchString(userAgent) {
		deviceType = domain.DeviceMobile
	}
	return domain.DeviceInfo{Type: deviceType, UserAgent: userAgent}
}
