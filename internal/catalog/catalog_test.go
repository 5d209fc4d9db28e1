package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := New(Config{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
		City: "Львів",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func seedTestCatalog(t *testing.T, c *Catalog) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, c.UpsertCategory(ctx, Category{
		ID: "roads", Name: "Дороги", Description: "Ями, зруйноване покриття",
	}))
	require.NoError(t, c.UpsertCategory(ctx, Category{
		ID: "water_supply", Name: "Водопостачання", Description: "Прориви труб, відсутність води",
	}))

	osbb, err := c.GetOrCreateService(ctx, Service{
		Name: "ОСББ Затишок", Type: ServiceTypeOSBB,
	})
	require.NoError(t, err)

	_, err = c.GetOrCreateService(ctx, Service{
		Name: "Галицька районна адміністрація", Type: ServiceTypeDistrict, District: "Галицький",
	})
	require.NoError(t, err)

	_, err = c.GetOrCreateService(ctx, Service{
		Name: "Львівводоканал", Type: ServiceTypeUtility, CategoryID: "water_supply",
	})
	require.NoError(t, err)

	_, err = c.GetOrCreateService(ctx, Service{
		Name: "Аварійно-диспетчерська служба", Type: ServiceTypeEmergency, Phone: "1580",
	})
	require.NoError(t, err)

	building, err := c.GetOrCreateBuilding(ctx, Building{
		Street: "Лева", Number: "42", District: "Галицький",
	})
	require.NoError(t, err)

	require.NoError(t, c.AssignService(ctx, building.ID, osbb.ID))
}

func TestCategoryLookup(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)
	ctx := context.Background()

	cat, err := c.Category(ctx, "roads")
	require.NoError(t, err)
	assert.Equal(t, "Дороги", cat.Name)

	_, err = c.Category(ctx, "parking")
	assert.ErrorIs(t, err, ErrNotFound)

	categories, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, "roads", categories[0].ID)
}

func TestUpsertCategoryIdempotent(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertCategory(ctx, Category{ID: "roads", Name: "Дороги"}))
	require.NoError(t, c.UpsertCategory(ctx, Category{ID: "roads", Name: "Дороги та тротуари"}))

	cat, err := c.Category(ctx, "roads")
	require.NoError(t, err)
	assert.Equal(t, "Дороги та тротуари", cat.Name)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Categories)
}

func TestFindBuilding(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)
	ctx := context.Background()

	b, err := c.FindBuilding(ctx, "Лева", "42")
	require.NoError(t, err)
	assert.Equal(t, "Галицький", b.District)

	_, err = c.FindBuilding(ctx, "Лева", "43")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindBuildingService(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)
	ctx := context.Background()

	b, err := c.FindBuilding(ctx, "Лева", "42")
	require.NoError(t, err)

	svc, err := c.FindBuildingService(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "ОСББ Затишок", svc.Name)
	assert.Equal(t, ServiceTypeOSBB, svc.Type)

	_, err = c.FindBuildingService(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindBuildingServicePrefersOSBB(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	building, err := c.GetOrCreateBuilding(ctx, Building{Street: "Франка", Number: "15"})
	require.NoError(t, err)

	lkp, err := c.GetOrCreateService(ctx, Service{Name: "ЛКП Центральне", Type: ServiceTypeManagement})
	require.NoError(t, err)
	osbb, err := c.GetOrCreateService(ctx, Service{Name: "ОСББ Франка 15", Type: ServiceTypeOSBB})
	require.NoError(t, err)

	require.NoError(t, c.AssignService(ctx, building.ID, lkp.ID))
	require.NoError(t, c.AssignService(ctx, building.ID, osbb.ID))

	svc, err := c.FindBuildingService(ctx, building.ID)
	require.NoError(t, err)
	assert.Equal(t, ServiceTypeOSBB, svc.Type)
}

func TestFindDistrictService(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)
	ctx := context.Background()

	svc, err := c.FindDistrictService(ctx, "Галицький")
	require.NoError(t, err)
	assert.Equal(t, "Галицька районна адміністрація", svc.Name)

	_, err = c.FindDistrictService(ctx, "Сихівський")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindCitywideService(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)
	ctx := context.Background()

	svc, err := c.FindCitywideService(ctx, "water_supply")
	require.NoError(t, err)
	assert.Equal(t, "Львівводоканал", svc.Name)

	_, err = c.FindCitywideService(ctx, "lighting")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindEmergencyService(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)

	svc, err := c.FindEmergencyService(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServiceTypeEmergency, svc.Type)
	assert.Equal(t, "1580", svc.Phone)
}

func TestHotlineSynthesizedFallback(t *testing.T) {
	c := newTestCatalog(t)

	svc, err := c.Hotline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HotlineName, svc.Name)
	assert.Equal(t, ServiceTypeHotline, svc.Type)
	assert.Zero(t, svc.ID)
}

func TestHotlineFromRegistry(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.GetOrCreateService(ctx, Service{
		Name: HotlineName, Type: ServiceTypeHotline, Phone: "1580",
	})
	require.NoError(t, err)

	svc, err := c.Hotline(ctx)
	require.NoError(t, err)
	assert.NotZero(t, svc.ID)
	assert.Equal(t, "1580", svc.Phone)
}

func TestGetOrCreateServiceIdempotent(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	first, err := c.GetOrCreateService(ctx, Service{Name: "ОСББ Затишок", Type: ServiceTypeOSBB})
	require.NoError(t, err)

	second, err := c.GetOrCreateService(ctx, Service{Name: "ОСББ Затишок", Type: ServiceTypeOSBB})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestStats(t *testing.T) {
	c := newTestCatalog(t)
	seedTestCatalog(t, c)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Categories)
	assert.Equal(t, 4, stats.Services)
	assert.Equal(t, 1, stats.Buildings)
	assert.Equal(t, 1, stats.Assignments)
}

func TestPing(t *testing.T) {
	c := newTestCatalog(t)
	assert.NoError(t, c.Ping(context.Background()))
}
