// Package resolver routes classified complaints to the responsible
// municipal service.
//
// Routing walks a fixed hierarchy from most to least specific: the
// emergency dispatch for urgent complaints, the building's own ОСББ or
// management company, the district administration, the citywide
// utility, and finally the municipal hotline. Each rung carries a
// fixed routing confidence so callers can tell a precise match from a
// hotline shrug.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/catalog"
)

// Routing confidence per hierarchy rung.
const (
	ConfidenceEmergency = 0.95
	ConfidenceBuilding  = 0.9
	ConfidenceDistrict  = 0.85
	ConfidenceCitywide  = 0.7
	ConfidenceHotline   = 0.1
	ConfidenceUnknown   = 0.0
)

// districtCategories are handled by the district administration when
// the building is known but has no assigned service.
var districtCategories = map[string]bool{
	"roads":          true,
	"trees":          true,
	"yard":           true,
	"infrastructure": true,
}

// citywideCategories are handled by a citywide utility company.
var citywideCategories = map[string]bool{
	"water_supply": true,
	"heating":      true,
	"gas":          true,
	"lighting":     true,
}

// Resolution is the routing verdict for a complaint.
type Resolution struct {
	// ServiceName is the responsible service, "Невідома служба" when
	// routing found nothing.
	ServiceName string `json:"service_name"`

	// ServiceType is the catalog service type, empty when unknown.
	ServiceType string `json:"service_type,omitempty"`

	// Phone and Email come from the registry when present.
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`

	// Confidence is the fixed routing confidence of the matched rung.
	Confidence float64 `json:"confidence"`

	// Reasoning explains which rung matched, in Ukrainian.
	Reasoning string `json:"reasoning"`

	// Address is the parsed address, when one was found in the text.
	Address *Address `json:"address,omitempty"`
}

// Resolver routes complaints using the service registry.
type Resolver struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// New creates a resolver over the service registry.
func New(cat *catalog.Catalog, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: cat, logger: logger}
}

// Resolve routes a classified complaint to the responsible service.
//
// The address is parsed from the complaint text. A registry lookup
// error aborts routing; an absent rung falls through to the next one.
func (r *Resolver) Resolve(ctx context.Context, text, categoryID string, isUrgent bool) (*Resolution, error) {
	addr := ParseAddress(text)

	// Emergencies go straight to dispatch.
	if isUrgent {
		svc, err := r.catalog.FindEmergencyService(ctx)
		if err == nil {
			return r.resolution(svc, ConfidenceEmergency,
				"Аварійна ситуація, звернення скеровано до аварійно-диспетчерської служби", addr), nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("routing emergency: %w", err)
		}
		r.logger.Warn("no emergency service registered, continuing down hierarchy")
	}

	var building *catalog.Building
	if addr.HasNumber() {
		var err error
		building, err = r.catalog.FindBuilding(ctx, addr.Street, addr.Number)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("looking up building: %w", err)
		}
	}

	// The building's own ОСББ or management company. District-level
	// categories (roads, trees, yard) are never a building manager's
	// job, even for a known building.
	if building != nil && !districtCategories[categoryID] {
		svc, err := r.catalog.FindBuildingService(ctx, building.ID)
		if err == nil {
			return r.resolution(svc, ConfidenceBuilding,
				fmt.Sprintf("Будинок %s, %s обслуговує %s", addr.Street, addr.Number, svc.Name), addr), nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("routing to building service: %w", err)
		}
	}

	// District administration for yard-level categories.
	if building != nil && building.District != "" && districtCategories[categoryID] {
		svc, err := r.catalog.FindDistrictService(ctx, building.District)
		if err == nil {
			return r.resolution(svc, ConfidenceDistrict,
				fmt.Sprintf("Питання в компетенції районної адміністрації (%s район)", building.District), addr), nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("routing to district administration: %w", err)
		}
		// The registry misses the row but the district is known.
		return &Resolution{
			ServiceName: DistrictAdministrationName(building.District),
			ServiceType: catalog.ServiceTypeDistrict,
			Confidence:  ConfidenceDistrict,
			Reasoning:   fmt.Sprintf("Питання в компетенції районної адміністрації (%s район)", building.District),
			Address:     addr,
		}, nil
	}

	// Citywide utility companies.
	if citywideCategories[categoryID] {
		svc, err := r.catalog.FindCitywideService(ctx, categoryID)
		if err == nil {
			return r.resolution(svc, ConfidenceCitywide,
				fmt.Sprintf("Категорія обслуговується міським комунальним підприємством %s", svc.Name), addr), nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("routing to citywide utility: %w", err)
		}
	}

	// For relevant complaints nothing matched; the hotline dispatches
	// manually.
	if categoryID != "" && categoryID != "other" {
		svc, err := r.catalog.Hotline(ctx)
		if err != nil {
			return nil, fmt.Errorf("routing to hotline: %w", err)
		}
		return r.resolution(svc, ConfidenceHotline,
			"Відповідальну службу не визначено, звернення передано на міську гарячу лінію", addr), nil
	}

	return &Resolution{
		ServiceName: catalog.UnknownServiceName,
		Confidence:  ConfidenceUnknown,
		Reasoning:   "Не вдалося визначити відповідальну службу",
		Address:     addr,
	}, nil
}

func (r *Resolver) resolution(svc *catalog.Service, confidence float64, reasoning string, addr *Address) *Resolution {
	res := &Resolution{
		ServiceName: svc.Name,
		ServiceType: svc.Type,
		Phone:       svc.Phone,
		Email:       svc.Email,
		Confidence:  confidence,
		Reasoning:   reasoning,
		Address:     addr,
	}
	r.logger.Debug("complaint routed",
		zap.String("service", svc.Name),
		zap.String("service_type", svc.Type),
		zap.Float64("confidence", confidence),
	)
	return res
}

// DistrictAdministrationName derives the administration name from a
// district: "Галицький" becomes "Галицька районна адміністрація".
func DistrictAdministrationName(district string) string {
	adjective := district
	if strings.HasSuffix(adjective, "ий") {
		adjective = strings.TrimSuffix(adjective, "ий") + "а"
	}
	return adjective + " районна адміністрація"
}
