package central

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mdc004/sophosURLmanager/internal/errors"
)

// whoAmIResponse covers the shapes the WhoAmI endpoint is known to return.
// Older tenants report only a top-level dataRegion; newer ones also carry
// explicit per-purpose hosts under apiHosts.
type whoAmIResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	DataRegion string `json:"dataRegion"`
	APIHosts   struct {
		Global     string `json:"global"`
		DataRegion string `json:"dataRegion"`
	} `json:"apiHosts"`
}

// regionStrategy extracts (region, apiBase) from a WhoAmI response.
// template is the printf pattern deriving an API base from a region code.
type regionStrategy func(who whoAmIResponse, template string) (region, apiBase string, ok bool)

// regionStrategies are tried in order; the first match wins.
var regionStrategies = []regionStrategy{
	regionFromAPIHosts,
	regionFromDataRegionField,
}

func (who whoAmIResponse) identity(template string) (Identity, error) {
	tenantID := who.ID
	if tenantID == "" {
		tenantID = who.TenantID
	}
	if tenantID == "" {
		return Identity{}, errors.Wrapf(errors.ErrRegionResolution, "[WhoAmI] response carries no tenant id")
	}

	for _, strategy := range regionStrategies {
		if region, apiBase, ok := strategy(who, template); ok {
			return Identity{TenantID: tenantID, DataRegion: region, APIBase: apiBase}, nil
		}
	}
	return Identity{}, errors.Wrapf(errors.ErrRegionResolution, "[WhoAmI] response carries no data region")
}

// regionFromAPIHosts reads the explicit regional host, e.g.
// "https://api-eu01.central.sophos.com" -> region "eu01".
func regionFromAPIHosts(who whoAmIResponse, _ string) (string, string, bool) {
	host := who.APIHosts.DataRegion
	if host == "" {
		return "", "", false
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	// Only hosts under central.sophos.com are trusted as regional API bases;
	// anything else falls through to the dataRegion field.
	if !strings.HasSuffix(u.Host, ".central.sophos.com") {
		return "", "", false
	}
	label, _, found := strings.Cut(u.Host, ".")
	if !found || !strings.HasPrefix(label, "api-") {
		return "", "", false
	}
	region := strings.TrimPrefix(label, "api-")
	if region == "" {
		return "", "", false
	}
	return region, strings.TrimSuffix(host, "/"), true
}

// regionFromDataRegionField falls back to the top-level region code and
// derives the API base from the host naming convention.
func regionFromDataRegionField(who whoAmIResponse, template string) (string, string, bool) {
	if who.DataRegion == "" {
		return "", "", false
	}
	return who.DataRegion, fmt.Sprintf(template, who.DataRegion), true
}
