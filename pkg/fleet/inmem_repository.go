package fleet

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemDriverRepository implements DriverRepository in memory for tests.
// Pair it with an InMemVehicleRepository via SetVehicleRepository to get
// the delete cascade the database enforces with a foreign key.
type InMemDriverRepository struct {
	mu       sync.Mutex
	drivers  map[uuid.UUID]*Driver
	vehicles *InMemVehicleRepository
}

// NewInMemDriverRepository creates an empty in-memory driver repository.
func NewInMemDriverRepository() *InMemDriverRepository {
	return &InMemDriverRepository{drivers: make(map[uuid.UUID]*Driver)}
}

// SetVehicleRepository wires the vehicle store used for the delete cascade.
func (r *InMemDriverRepository) SetVehicleRepository(vehicles *InMemVehicleRepository) {
	r.vehicles = vehicles
}

func (r *InMemDriverRepository) CreateDriver(ctx context.Context, driver Driver) (Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.drivers {
		if d.NationalID == driver.NationalID {
			return Driver{}, ErrNationalIDTaken
		}
	}

	driver.ID = uuid.New()
	now := time.Now().UTC()
	driver.CreatedAt = now
	driver.UpdatedAt = now
	d := driver
	r.drivers[driver.ID] = &d
	return driver, nil
}

func (r *InMemDriverRepository) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[id]
	if !ok {
		return Driver{}, ErrDriverNotFound
	}
	return *d, nil
}

func (r *InMemDriverRepository) FindDrivers(ctx context.Context) ([]Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	drivers := make([]Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		drivers = append(drivers, *d)
	}
	return drivers, nil
}

func (r *InMemDriverRepository) UpdateDriver(ctx context.Context, driver Driver) (Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.drivers[driver.ID]
	if !ok {
		return Driver{}, ErrDriverNotFound
	}
	for id, d := range r.drivers {
		if id != driver.ID && d.NationalID == driver.NationalID {
			return Driver{}, ErrNationalIDTaken
		}
	}
	driver.CreatedAt = stored.CreatedAt
	driver.UpdatedAt = time.Now().UTC()
	*stored = driver
	return *stored, nil
}

func (r *InMemDriverRepository) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if _, ok := r.drivers[id]; !ok {
		r.mu.Unlock()
		return ErrDriverNotFound
	}
	delete(r.drivers, id)
	r.mu.Unlock()

	if r.vehicles != nil {
		r.vehicles.deleteByDriver(id)
	}
	return nil
}

// InMemVehicleRepository implements VehicleRepository in memory for tests.
type InMemVehicleRepository struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*Vehicle
}

// NewInMemVehicleRepository creates an empty in-memory vehicle repository.
func NewInMemVehicleRepository() *InMemVehicleRepository {
	return &InMemVehicleRepository{vehicles: make(map[uuid.UUID]*Vehicle)}
}

func (r *InMemVehicleRepository) CreateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vehicle.Plate = strings.ToUpper(vehicle.Plate)
	for _, v := range r.vehicles {
		if v.Plate == vehicle.Plate {
			return Vehicle{}, ErrPlateTaken
		}
	}

	vehicle.ID = uuid.New()
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	v := vehicle
	r.vehicles[vehicle.ID] = &v
	return vehicle, nil
}

func (r *InMemVehicleRepository) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vehicles[id]
	if !ok {
		return Vehicle{}, ErrVehicleNotFound
	}
	return *v, nil
}

func (r *InMemVehicleRepository) FindVehicles(ctx context.Context) ([]Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vehicles := make([]Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		vehicles = append(vehicles, *v)
	}
	return vehicles, nil
}

func (r *InMemVehicleRepository) FindVehiclesByDriver(ctx context.Context, driverID uuid.UUID) ([]Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var vehicles []Vehicle
	for _, v := range r.vehicles {
		if v.DriverID == driverID {
			vehicles = append(vehicles, *v)
		}
	}
	return vehicles, nil
}

func (r *InMemVehicleRepository) UpdateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.vehicles[vehicle.ID]
	if !ok {
		return Vehicle{}, ErrVehicleNotFound
	}
	vehicle.Plate = strings.ToUpper(vehicle.Plate)
	for id, v := range r.vehicles {
		if id != vehicle.ID && v.Plate == vehicle.Plate {
			return Vehicle{}, ErrPlateTaken
		}
	}
	vehicle.CreatedAt = stored.CreatedAt
	vehicle.UpdatedAt = time.Now().UTC()
	*stored = vehicle
	return *stored, nil
}

func (r *InMemVehicleRepository) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vehicles[id]; !ok {
		return ErrVehicleNotFound
	}
	delete(r.vehicles, id)
	return nil
}

func (r *InMemVehicleRepository) deleteByDriver(driverID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range r.vehicles {
		if v.DriverID == driverID {
			delete(r.vehicles, id)
		}
	}
}
