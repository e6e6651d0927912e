package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFleet(t *testing.T) *FleetService {
	t.Helper()
	drivers := NewInMemDriverRepository()
	vehicles := NewInMemVehicleRepository()
	drivers.SetVehicleRepository(vehicles)
	return NewFleetService(drivers, vehicles)
}

func testDriver() Driver {
	birth := time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC)
	return Driver{
		FirstName:  "Carlos",
		LastName:   "Rojas",
		NationalID: "V-12345678",
		BirthDate:  &birth,
		Sex:        "M",
		Phone:      "04141234567",
		Address: Address{
			City:         "Maracaibo",
			State:        "Zulia",
			Municipality: "Maracaibo",
			Sector:       "La Limpia",
			HouseNumber:  "45-12",
		},
	}
}

func TestCreateDriver(t *testing.T) {
	service := setupFleet(t)
	ctx := context.Background()

	created, err := service.CreateDriver(ctx, testDriver())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	t.Run("DuplicateNationalID", func(t *testing.T) {
		_, err := service.CreateDriver(ctx, testDriver())
		assert.ErrorIs(t, err, ErrNationalIDTaken)
	})

	t.Run("MissingName", func(t *testing.T) {
		d := testDriver()
		d.NationalID = "V-999"
		d.FirstName = "  "
		_, err := service.CreateDriver(ctx, d)
		assert.Error(t, err)
	})

	t.Run("PermitPaidWithoutDate", func(t *testing.T) {
		d := testDriver()
		d.NationalID = "V-888"
		d.PermitPaid = true
		_, err := service.CreateDriver(ctx, d)
		assert.Error(t, err)
	})
}

func TestDriverAge(t *testing.T) {
	now := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC)
	driver := Driver{BirthDate: &birth}

	assert.Equal(t, 39, driver.Age(now), "day before the birthday")
	assert.Equal(t, 40, driver.Age(now.AddDate(0, 0, 1)), "on the birthday")
	assert.Equal(t, -1, Driver{}.Age(now), "no birth date recorded")
}

func TestPermitValid(t *testing.T) {
	paid := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	driver := Driver{PermitPaid: true, PermitPaidOn: &paid}

	assert.True(t, driver.PermitValid(paid.AddDate(0, 0, 30)), "last day of the window")
	assert.False(t, driver.PermitValid(paid.AddDate(0, 0, 31)), "window elapsed")
	assert.False(t, Driver{PermitPaidOn: &paid}.PermitValid(paid), "payment not flagged")
	assert.False(t, Driver{PermitPaid: true}.PermitValid(paid), "no payment date")
}

func TestVehicleLifecycle(t *testing.T) {
	service := setupFleet(t)
	ctx := context.Background()

	driver, err := service.CreateDriver(ctx, testDriver())
	require.NoError(t, err)

	vehicle, err := service.CreateVehicle(ctx, Vehicle{
		Plate:    "abc-123",
		Model:    "Toyota Corolla",
		Name:     "El Rayo",
		Year:     2018,
		DriverID: driver.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", vehicle.Plate, "plates are stored uppercased")

	t.Run("DuplicatePlate", func(t *testing.T) {
		_, err := service.CreateVehicle(ctx, Vehicle{
			Plate: "ABC-123", Model: "Chevrolet Aveo", Name: "Otro", Year: 2015, DriverID: driver.ID,
		})
		assert.ErrorIs(t, err, ErrPlateTaken)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := service.CreateVehicle(ctx, Vehicle{
			Plate: "XYZ-999", Model: "Ford Fiesta", Name: "Nuevo", Year: 2020, DriverID: uuid.New(),
		})
		assert.ErrorIs(t, err, ErrDriverNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		vehicle.Name = "El Rayo II"
		updated, err := service.UpdateVehicle(ctx, vehicle)
		require.NoError(t, err)
		assert.Equal(t, "El Rayo II", updated.Name)
	})

	t.Run("ListByDriver", func(t *testing.T) {
		vehicles, err := service.DriverVehicles(ctx, driver.ID)
		require.NoError(t, err)
		assert.Len(t, vehicles, 1)
	})
}

func TestDeleteDriverCascadesToVehicles(t *testing.T) {
	service := setupFleet(t)
	ctx := context.Background()

	driver, err := service.CreateDriver(ctx, testDriver())
	require.NoError(t, err)
	vehicle, err := service.CreateVehicle(ctx, Vehicle{
		Plate: "ABC-123", Model: "Toyota Corolla", Name: "El Rayo", Year: 2018, DriverID: driver.ID,
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteDriver(ctx, driver.ID))

	_, err = service.GetDriver(ctx, driver.ID)
	assert.ErrorIs(t, err, ErrDriverNotFound)
	_, err = service.GetVehicle(ctx, vehicle.ID)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}
