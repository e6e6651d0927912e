package fleet

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const driverColumns = `
	id, first_name, last_name, national_id, birth_date, sex, phone,
	city, state, municipality, sector, house_number,
	permit_paid, permit_paid_on, created_at, updated_at
`

const vehicleColumns = `
	id, plate, model, name, year, driver_id, created_at, updated_at
`

// PostgresDriverRepository implements DriverRepository on PostgreSQL.
type PostgresDriverRepository struct {
	db *pgxpool.Pool
}

// NewPostgresDriverRepository creates a PostgreSQL-backed driver repository.
func NewPostgresDriverRepository(db *pgxpool.Pool) *PostgresDriverRepository {
	return &PostgresDriverRepository{db: db}
}

func (r *PostgresDriverRepository) CreateDriver(ctx context.Context, driver Driver) (Driver, error) {
	query := `
		INSERT INTO drivers
			(first_name, last_name, national_id, birth_date, sex, phone,
			 city, state, municipality, sector, house_number,
			 permit_paid, permit_paid_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + driverColumns

	row := r.db.QueryRow(ctx, query,
		driver.FirstName,
		driver.LastName,
		driver.NationalID,
		driver.BirthDate,
		driver.Sex,
		driver.Phone,
		driver.Address.City,
		driver.Address.State,
		driver.Address.Municipality,
		driver.Address.Sector,
		driver.Address.HouseNumber,
		driver.PermitPaid,
		driver.PermitPaidOn,
	)
	created, err := scanDriver(row)
	if err != nil {
		return Driver{}, mapFleetConstraintError(err)
	}
	return created, nil
}

func (r *PostgresDriverRepository) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	driver, err := scanDriver(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Driver{}, ErrDriverNotFound
		}
		return Driver{}, err
	}
	return driver, nil
}

func (r *PostgresDriverRepository) FindDrivers(ctx context.Context) ([]Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

func (r *PostgresDriverRepository) UpdateDriver(ctx context.Context, driver Driver) (Driver, error) {
	query := `
		UPDATE drivers
		SET first_name = $2,
		    last_name = $3,
		    national_id = $4,
		    birth_date = $5,
		    sex = $6,
		    phone = $7,
		    city = $8,
		    state = $9,
		    municipality = $10,
		    sector = $11,
		    house_number = $12,
		    permit_paid = $13,
		    permit_paid_on = $14,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		RETURNING ` + driverColumns

	row := r.db.QueryRow(ctx, query,
		driver.ID,
		driver.FirstName,
		driver.LastName,
		driver.NationalID,
		driver.BirthDate,
		driver.Sex,
		driver.Phone,
		driver.Address.City,
		driver.Address.State,
		driver.Address.Municipality,
		driver.Address.Sector,
		driver.Address.HouseNumber,
		driver.PermitPaid,
		driver.PermitPaidOn,
	)
	updated, err := scanDriver(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Driver{}, ErrDriverNotFound
		}
		return Driver{}, mapFleetConstraintError(err)
	}
	return updated, nil
}

// DeleteDriver removes the driver row; the vehicles foreign key is
// declared ON DELETE CASCADE so the driver's vehicles go with it.
func (r *PostgresDriverRepository) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverNotFound
	}
	return nil
}

// PostgresVehicleRepository implements VehicleRepository on PostgreSQL.
type PostgresVehicleRepository struct {
	db *pgxpool.Pool
}

// NewPostgresVehicleRepository creates a PostgreSQL-backed vehicle repository.
func NewPostgresVehicleRepository(db *pgxpool.Pool) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{db: db}
}

func (r *PostgresVehicleRepository) CreateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	query := `
		INSERT INTO vehicles (plate, model, name, year, driver_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + vehicleColumns

	row := r.db.QueryRow(ctx, query,
		strings.ToUpper(vehicle.Plate),
		vehicle.Model,
		vehicle.Name,
		vehicle.Year,
		vehicle.DriverID,
	)
	created, err := scanVehicle(row)
	if err != nil {
		return Vehicle{}, mapFleetConstraintError(err)
	}
	return created, nil
}

func (r *PostgresVehicleRepository) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	vehicle, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, ErrVehicleNotFound
		}
		return Vehicle{}, err
	}
	return vehicle, nil
}

func (r *PostgresVehicleRepository) FindVehicles(ctx context.Context) ([]Vehicle, error) {
	return r.findVehicles(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY plate`)
}

func (r *PostgresVehicleRepository) FindVehiclesByDriver(ctx context.Context, driverID uuid.UUID) ([]Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE driver_id = $1 ORDER BY plate`
	return r.findVehicles(ctx, query, driverID)
}

func (r *PostgresVehicleRepository) findVehicles(ctx context.Context, query string, args ...any) ([]Vehicle, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func (r *PostgresVehicleRepository) UpdateVehicle(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	query := `
		UPDATE vehicles
		SET plate = $2,
		    model = $3,
		    name = $4,
		    year = $5,
		    driver_id = $6,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		RETURNING ` + vehicleColumns

	row := r.db.QueryRow(ctx, query,
		vehicle.ID,
		strings.ToUpper(vehicle.Plate),
		vehicle.Model,
		vehicle.Name,
		vehicle.Year,
		vehicle.DriverID,
	)
	updated, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, ErrVehicleNotFound
		}
		return Vehicle{}, mapFleetConstraintError(err)
	}
	return updated, nil
}

func (r *PostgresVehicleRepository) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

func mapFleetConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "drivers_national_id_key":
			return ErrNationalIDTaken
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "vehicles_plate_key":
			return ErrPlateTaken
		case pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.ConstraintName == "vehicles_driver_id_fkey":
			return ErrDriverNotFound
		}
	}
	return err
}

func scanDriver(row pgx.Row) (Driver, error) {
	var d Driver
	err := row.Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&d.NationalID,
		&d.BirthDate,
		&d.Sex,
		&d.Phone,
		&d.Address.City,
		&d.Address.State,
		&d.Address.Municipality,
		&d.Address.Sector,
		&d.Address.HouseNumber,
		&d.PermitPaid,
		&d.PermitPaidOn,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID,
		&v.Plate,
		&v.Model,
		&v.Name,
		&v.Year,
		&v.DriverID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	return v, err
}
