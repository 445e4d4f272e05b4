// Package seed loads the vehicle allocation fixture data set into a fresh
// database.
package seed

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    obsmetrics "github.com/amirimatin/mongo-rsinit/pkg/observability/metrics"
    "github.com/amirimatin/mongo-rsinit/pkg/observability/tracing"
)

const (
    DefaultDatabase = "vehicle_allocation_db"

    CollUsers       = "users"
    CollVehicles    = "vehicles"
    CollAllocations = "allocations"
)

// Store is the collection surface the seeder writes through.
type Store interface {
    Drop(ctx context.Context, coll string) error
    InsertMany(ctx context.Context, coll string, docs []any) error
}

type User struct {
    EmployeeID string `bson:"employee_id" json:"employee_id"`
    Name       string `bson:"name" json:"name"`
    Email      string `bson:"email" json:"email"`
    Role       string `bson:"role" json:"role"`
}

type Vehicle struct {
    VehicleID string `bson:"vehicle_id" json:"vehicle_id"`
    Make      string `bson:"make" json:"make"`
    Model     string `bson:"model" json:"model"`
    Status    string `bson:"status" json:"status"`
}

type Allocation struct {
    AllocationID string    `bson:"allocation_id" json:"allocation_id"`
    EmployeeID   string    `bson:"employee_id" json:"employee_id"`
    VehicleID    string    `bson:"vehicle_id" json:"vehicle_id"`
    From         time.Time `bson:"from_datetime" json:"from_datetime"`
    To           time.Time `bson:"to_datetime" json:"to_datetime"`
    Purpose      string    `bson:"purpose" json:"purpose"`
    Status       string    `bson:"status" json:"status"`
}

// DataSet is one generated batch of fixtures.
type DataSet struct {
    Users       []User
    Vehicles    []Vehicle
    Allocations []Allocation
}

// Fixtures builds the data set. Allocation windows are relative to now and
// every allocation references a user and a vehicle of the same set.
func Fixtures(now time.Time, newID func() string) DataSet {
    if newID == nil { newID = uuid.NewString }
    day := 24 * time.Hour
    users := []User{
        {EmployeeID: newID(), Name: "Abdul Rahman", Email: "abdul.rahman@example.com", Role: "EMPLOYEE"},
        {EmployeeID: newID(), Name: "Fatima Khatun", Email: "fatima.khatun@example.com", Role: "DRIVER"},
        {EmployeeID: newID(), Name: "Sultan Ahmed", Email: "sultan.ahmed@example.com", Role: "ADMIN"},
        {EmployeeID: newID(), Name: "Nurul Islam", Email: "nurul.islam@example.com", Role: "EMPLOYEE"},
        {EmployeeID: newID(), Name: "Shirin Akter", Email: "shirin.akter@example.com", Role: "DRIVER"},
    }
    vehicles := []Vehicle{
        {VehicleID: newID(), Make: "Toyota", Model: "Corolla", Status: "available"},
        {VehicleID: newID(), Make: "Honda", Model: "Civic", Status: "in_maintenance"},
        {VehicleID: newID(), Make: "Mitsubishi", Model: "Pajero", Status: "available"},
        {VehicleID: newID(), Make: "Nissan", Model: "Sunny", Status: "booked"},
        {VehicleID: newID(), Make: "Hyundai", Model: "Tucson", Status: "available"},
    }
    allocations := []Allocation{
        {
            AllocationID: newID(), EmployeeID: users[0].EmployeeID, VehicleID: vehicles[0].VehicleID,
            From: now.Add(1 * day), To: now.Add(2 * day), Purpose: "Business trip to Dhaka", Status: "approved",
        },
        {
            AllocationID: newID(), EmployeeID: users[1].EmployeeID, VehicleID: vehicles[2].VehicleID,
            From: now.Add(3 * day), To: now.Add(5 * day), Purpose: "Delivery of goods to Chittagong", Status: "pending",
        },
        {
            AllocationID: newID(), EmployeeID: users[3].EmployeeID, VehicleID: vehicles[4].VehicleID,
            From: now.Add(4 * day), To: now.Add(6 * day), Purpose: "Site visit to Rajshahi", Status: "approved",
        },
    }
    return DataSet{Users: users, Vehicles: vehicles, Allocations: allocations}
}

// Result reports how many documents were written per collection.
type Result struct {
    Users       int
    Vehicles    int
    Allocations int
}

// Seeder drops the fixture collections and reloads them.
type Seeder struct {
    Store  Store
    Logger *zap.Logger
    // Now and NewID default to time.Now and uuid.NewString.
    Now   func() time.Time
    NewID func() string
}

// Run replaces the contents of the users, vehicles and allocations
// collections with a fresh fixture set.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
    logger := s.Logger
    if logger == nil { logger = zap.NewNop() }
    now := time.Now
    if s.Now != nil { now = s.Now }

    ctx, end := tracing.StartSpan(ctx, "seed.run")
    defer end()

    for _, coll := range []string{CollUsers, CollVehicles, CollAllocations} {
        if err := s.Store.Drop(ctx, coll); err != nil {
            return Result{}, fmt.Errorf("seed: drop %s: %w", coll, err)
        }
    }

    ds := Fixtures(now(), s.NewID)
    batches := []struct{
        coll string
        docs []any
    }{
        {CollUsers, toDocs(ds.Users)},
        {CollVehicles, toDocs(ds.Vehicles)},
        {CollAllocations, toDocs(ds.Allocations)},
    }
    for _, b := range batches {
        if err := s.Store.InsertMany(ctx, b.coll, b.docs); err != nil {
            return Result{}, fmt.Errorf("seed: insert %s: %w", b.coll, err)
        }
        obsmetrics.SeededDocuments.WithLabelValues(b.coll).Add(float64(len(b.docs)))
        logger.Info("seeded collection", zap.String("collection", b.coll), zap.Int("documents", len(b.docs)))
    }
    return Result{Users: len(ds.Users), Vehicles: len(ds.Vehicles), Allocations: len(ds.Allocations)}, nil
}

func toDocs[T any](in []T) []any {
    out := make([]any, len(in))
    for i := range in { out[i] = in[i] }
    return out
}
