package account

import (
	"context"
	"fmt"
	"time"

	"github.com/mssola/useragent"
)

const loginTimeLayout = "January 02, 2006 - 03:04 PM"

type LoginInfo struct {
	IP        string
	Device    string
	Location  string
	LoginTime string
}

// DeviceFromUserAgent renders a User-Agent header as "<browser> on <os>".
func DeviceFromUserAgent(header string) string {
	browser, os := "Other", "Other"
	if header != "" {
		ua := useragent.New(header)
		if name, _ := ua.Browser(); name != "" {
			browser = name
		}
		if info := ua.OSInfo(); info.Name != "" {
			os = info.Name
		}
	}
	return fmt.Sprintf("%s on %s", browser, os)
}

func (s *Service) loginInfo(ctx context.Context, client ClientInfo, at time.Time) LoginInfo {
	return LoginInfo{
		IP:        client.IP,
		Device:    DeviceFromUserAgent(client.UserAgent),
		Location:  s.locator.Locate(ctx, client.IP),
		LoginTime: at.Local().Format(loginTimeLayout),
	}
}
