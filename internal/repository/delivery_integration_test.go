//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/ports/dispatchtx"
	"swiftdrop/internal/repository"
)

type DeliveryRepositorySuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	repo  *repository.DeliveryRepo
	users *repository.UserRepo
}

func (s *DeliveryRepositorySuite) SetupSuite() {
	s.Require().NotNil(tcPool, "tcPool must be initialized in TestMain")

	s.pool = tcPool
	s.repo = repository.NewDeliveryRepo(tcPool)
	s.users = repository.NewUserRepo(tcPool)
}

func (s *DeliveryRepositorySuite) SetupTest() {
	s.Require().NoError(truncateAll(context.Background(), s.pool))
}

func (s *DeliveryRepositorySuite) seedUser(name string, role domain.Role) int64 {
	var id int64
	err := s.pool.QueryRow(context.Background(), `
		INSERT INTO users (name, email, role, driver_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, name, name+"@example.com", string(role), string(domain.DriverOnline)).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *DeliveryRepositorySuite) seedVehicle(driverID int64, vt domain.VehicleType, approved bool) int64 {
	var id int64
	err := s.pool.QueryRow(context.Background(), `
		INSERT INTO vehicles (driver_id, type, plate, approved)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, driverID, string(vt), fmt.Sprintf("DL-%d-%d", driverID, time.Now().UnixNano()), approved).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *DeliveryRepositorySuite) seedDelivery(customerID int64, ttl time.Duration) *domain.Delivery {
	d := &domain.Delivery{
		CustomerID:  customerID,
		Pickup:      domain.Location{Address: "12 MG Road", Point: domain.GeoPoint{Longitude: 77.21, Latitude: 28.63}},
		Dropoff:     domain.Location{Address: "4 Cyber City", Point: domain.GeoPoint{Longitude: 77.08, Latitude: 28.49}},
		VehicleType: domain.VehicleBike,
		Weight:      2.5,
		DistanceKm:  19.7,
		Fare:        182.5,
		ScheduledAt: time.Now().UTC(),
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	s.Require().NoError(s.repo.Create(context.Background(), d))
	return d
}

func (s *DeliveryRepositorySuite) TestCreateAndGet() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	d := s.seedDelivery(customerID, 5*time.Minute)

	s.NotZero(d.ID)
	s.Equal(domain.StatusPending, d.Status)
	s.False(d.CreatedAt.IsZero())

	got, err := s.repo.Get(ctx, d.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)

	s.Equal(d.ID, got.ID)
	s.Equal(customerID, got.CustomerID)
	s.Nil(got.DriverID)
	s.Equal("12 MG Road", got.Pickup.Address)
	s.InDelta(28.63, got.Pickup.Point.Latitude, 1e-9)
	s.Equal(domain.VehicleBike, got.VehicleType)
	s.Equal(182.5, got.Fare)
}

func (s *DeliveryRepositorySuite) TestGetNotFound() {
	got, err := s.repo.Get(context.Background(), 9999)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *DeliveryRepositorySuite) TestUpdateStatusFrom_GuardMismatch() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	d := s.seedDelivery(customerID, 5*time.Minute)

	ok, err := s.repo.UpdateStatusFrom(ctx, d.ID, domain.StatusAccepted, domain.StatusParcelPicked)
	s.Require().NoError(err)
	s.False(ok, "guard must reject a stale expected status")

	got, err := s.repo.Get(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, got.Status)
}

func (s *DeliveryRepositorySuite) TestUpdateStatusFrom_StampsLifecycleTimes() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	d := s.seedDelivery(customerID, 5*time.Minute)

	ok, err := s.repo.UpdateStatusFrom(ctx, d.ID, domain.StatusPending, domain.StatusCancelled)
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.repo.Get(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusCancelled, got.Status)
	s.NotNil(got.Meta.CancelledAt)
	s.Nil(got.Meta.DeliveredAt)
}

func (s *DeliveryRepositorySuite) TestAcceptPending_ConcurrentSingleWinner() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	d := s.seedDelivery(customerID, 5*time.Minute)

	const drivers = 8
	driverIDs := make([]int64, drivers)
	vehicleIDs := make([]int64, drivers)
	for i := 0; i < drivers; i++ {
		driverIDs[i] = s.seedUser(fmt.Sprintf("driver%d", i), domain.RoleDriver)
		vehicleIDs[i] = s.seedVehicle(driverIDs[i], domain.VehicleBike, true)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	wins := make([]bool, drivers)

	for i := 0; i < drivers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
				ok, err := tx.AcceptPending(ctx, d.ID, driverIDs[i], vehicleIDs[i])
				if err != nil {
					return err
				}
				wins[i] = ok
				return nil
			})
			s.NoError(err)
		}()
	}

	close(start)
	wg.Wait()

	winners := 0
	var winner int
	for i, won := range wins {
		if won {
			winners++
			winner = i
		}
	}
	s.Equal(1, winners, "exactly one driver must win the acceptance race")

	got, err := s.repo.Get(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusAccepted, got.Status)
	s.Require().NotNil(got.DriverID)
	s.Equal(driverIDs[winner], *got.DriverID)
	s.Require().NotNil(got.VehicleID)
	s.Equal(vehicleIDs[winner], *got.VehicleID)
}

func (s *DeliveryRepositorySuite) TestExpirePending_SkipsAcceptedRides() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	driverID := s.seedUser("driver", domain.RoleDriver)
	vehicleID := s.seedVehicle(driverID, domain.VehicleBike, true)

	stale := s.seedDelivery(customerID, -time.Minute)
	accepted := s.seedDelivery(customerID, -time.Minute)
	fresh := s.seedDelivery(customerID, 5*time.Minute)

	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		ok, err := tx.AcceptPending(ctx, accepted.ID, driverID, vehicleID)
		s.True(ok)
		return err
	})
	s.Require().NoError(err)

	ids, err := s.repo.ExpirePending(ctx, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal([]int64{stale.ID}, ids)

	got, err := s.repo.Get(ctx, accepted.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusAccepted, got.Status, "an accepted ride is out of the sweeper's reach")

	got, err = s.repo.Get(ctx, fresh.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, got.Status)
}

func (s *DeliveryRepositorySuite) TestAcceptPending_ExpiredRideLost() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	driverID := s.seedUser("driver", domain.RoleDriver)
	vehicleID := s.seedVehicle(driverID, domain.VehicleBike, true)

	d := s.seedDelivery(customerID, -time.Minute)

	_, err := s.repo.ExpirePending(ctx, time.Now().UTC())
	s.Require().NoError(err)

	err = s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		ok, err := tx.AcceptPending(ctx, d.ID, driverID, vehicleID)
		s.False(ok, "sweeper and acceptance must be mutually exclusive")
		return err
	})
	s.Require().NoError(err)
}

func (s *DeliveryRepositorySuite) TestListPending_ExcludesStale() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	fresh := s.seedDelivery(customerID, 5*time.Minute)
	s.seedDelivery(customerID, -time.Minute)

	list, err := s.repo.ListPending(ctx, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(fresh.ID, list[0].ID)
}

func (s *DeliveryRepositorySuite) TestListByCustomerAndDriver() {
	ctx := context.Background()

	customerID := s.seedUser("customer", domain.RoleCustomer)
	otherID := s.seedUser("other", domain.RoleCustomer)
	driverID := s.seedUser("driver", domain.RoleDriver)
	vehicleID := s.seedVehicle(driverID, domain.VehicleBike, true)

	mine := s.seedDelivery(customerID, 5*time.Minute)
	s.seedDelivery(otherID, 5*time.Minute)

	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		_, err := tx.AcceptPending(ctx, mine.ID, driverID, vehicleID)
		return err
	})
	s.Require().NoError(err)

	byCustomer, err := s.repo.ListByCustomer(ctx, customerID)
	s.Require().NoError(err)
	s.Require().Len(byCustomer, 1)
	s.Equal(mine.ID, byCustomer[0].ID)

	byDriver, err := s.repo.ListByDriver(ctx, driverID)
	s.Require().NoError(err)
	s.Require().Len(byDriver, 1)
	s.Equal(mine.ID, byDriver[0].ID)
}

func (s *DeliveryRepositorySuite) TestSetDriverStatus_Guard() {
	ctx := context.Background()

	driverID := s.seedUser("driver", domain.RoleDriver)

	ok, err := s.users.SetDriverStatus(ctx, driverID, domain.DriverOnline, domain.DriverOffline)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.users.SetDriverStatus(ctx, driverID, domain.DriverOnline, domain.DriverOffline)
	s.Require().NoError(err)
	s.False(ok, "stale expected status must not match")
}

func (s *DeliveryRepositorySuite) TestApprovedVehicle() {
	ctx := context.Background()

	driverID := s.seedUser("driver", domain.RoleDriver)
	s.seedVehicle(driverID, domain.VehicleBike, false)
	approvedID := s.seedVehicle(driverID, domain.VehicleBike, true)

	v, err := s.users.ApprovedVehicle(ctx, driverID, domain.VehicleBike)
	s.Require().NoError(err)
	s.Require().NotNil(v)
	s.Equal(approvedID, v.ID)

	v, err = s.users.ApprovedVehicle(ctx, driverID, domain.VehicleLorry)
	s.Require().NoError(err)
	s.Nil(v)
}

func (s *DeliveryRepositorySuite) TestGet_ContextCanceled_ReturnsError() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := s.repo.Get(ctx, 1)
	s.Nil(got)
	s.Error(err)
}

func TestDeliveryRepositorySuite(t *testing.T) {
	suite.Run(t, new(DeliveryRepositorySuite))
}
