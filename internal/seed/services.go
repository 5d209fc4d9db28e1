package seed

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lvivdigital/zvernennia/internal/catalog"
)

// ServicesFile is the YAML shape of a service registry file.
type ServicesFile struct {
	Services  []ServiceSpec  `yaml:"services"`
	Buildings []BuildingSpec `yaml:"buildings"`
}

// ServiceSpec is one municipal service definition.
type ServiceSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	CategoryID string `yaml:"category_id,omitempty"`
	District   string `yaml:"district,omitempty"`
	Phone      string `yaml:"phone,omitempty"`
	Email      string `yaml:"email,omitempty"`
}

// BuildingSpec is one building with its assigned services.
type BuildingSpec struct {
	Street   string `yaml:"street"`
	Number   string `yaml:"number"`
	District string `yaml:"district,omitempty"`

	// Services lists service names assigned to this building. The
	// names must appear in the services section.
	Services []string `yaml:"services,omitempty"`
}

// ServicesResult summarizes a registry seeding run.
type ServicesResult struct {
	Services    int
	Buildings   int
	Assignments int
}

var knownServiceTypes = map[string]bool{
	catalog.ServiceTypeOSBB:       true,
	catalog.ServiceTypeManagement: true,
	catalog.ServiceTypeDistrict:   true,
	catalog.ServiceTypeUtility:    true,
	catalog.ServiceTypeEmergency:  true,
	catalog.ServiceTypeHotline:    true,
}

// Services loads the service registry from a YAML file. Repeated runs
// are idempotent.
func Services(ctx context.Context, path string, cat *catalog.Catalog, logger *zap.Logger) (*ServicesResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading services file: %w", err)
	}

	var file ServicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing services file %s: %w", path, err)
	}
	if err := validateServices(&file); err != nil {
		return nil, fmt.Errorf("invalid services file %s: %w", path, err)
	}

	serviceIDs := make(map[string]int64, len(file.Services))
	for _, spec := range file.Services {
		svc, err := cat.GetOrCreateService(ctx, catalog.Service{
			Name:       spec.Name,
			Type:       spec.Type,
			CategoryID: spec.CategoryID,
			District:   spec.District,
			Phone:      spec.Phone,
			Email:      spec.Email,
		})
		if err != nil {
			return nil, err
		}
		serviceIDs[spec.Name] = svc.ID
	}

	assignments := 0
	for _, spec := range file.Buildings {
		building, err := cat.GetOrCreateBuilding(ctx, catalog.Building{
			Street:   spec.Street,
			Number:   spec.Number,
			District: spec.District,
		})
		if err != nil {
			return nil, err
		}

		for _, name := range spec.Services {
			if err := cat.AssignService(ctx, building.ID, serviceIDs[name]); err != nil {
				return nil, err
			}
			assignments++
		}
	}

	logger.Info("service registry seeded",
		zap.String("path", path),
		zap.Int("services", len(file.Services)),
		zap.Int("buildings", len(file.Buildings)),
		zap.Int("assignments", assignments),
	)

	return &ServicesResult{
		Services:    len(file.Services),
		Buildings:   len(file.Buildings),
		Assignments: assignments,
	}, nil
}

func validateServices(file *ServicesFile) error {
	names := make(map[string]bool, len(file.Services))
	for i, s := range file.Services {
		if s.Name == "" {
			return fmt.Errorf("service %d has no name", i)
		}
		if !knownServiceTypes[s.Type] {
			return fmt.Errorf("service %q has unknown type %q", s.Name, s.Type)
		}
		names[s.Name] = true
	}

	for i, b := range file.Buildings {
		if b.Street == "" || b.Number == "" {
			return fmt.Errorf("building %d needs street and number", i)
		}
		for _, name := range b.Services {
			if !names[name] {
				return fmt.Errorf("building %s %s references unknown service %q", b.Street, b.Number, name)
			}
		}
	}
	return nil
}
