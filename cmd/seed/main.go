package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"koel/internal/config"
	"koel/internal/database"
	"koel/internal/logger"
	"koel/internal/models"
	"koel/internal/repository"
	"koel/internal/search"

	"golang.org/x/crypto/bcrypt"
)

var (
	skipSearch = flag.Bool("skip-search", false, "Skip indexing stations in Elasticsearch")
	demoUser   = flag.Bool("demo-user", true, "Create the demo user account")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	slog.Info("Starting seeder...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)
	ctx := context.Background()

	seeded := 0
	for _, train := range sampleTrains() {
		existing, err := repos.Trains.GetByNumber(ctx, train.Number)
		if err != nil {
			slog.Error("Failed to check train", "train_number", train.Number, "error", err)
			os.Exit(1)
		}
		if existing != nil {
			slog.Info("Train already seeded", "train_number", train.Number)
			continue
		}

		if err := repos.Trains.Create(ctx, train); err != nil {
			slog.Error("Failed to seed train", "train_number", train.Number, "error", err)
			os.Exit(1)
		}
		seeded++
		slog.Info("Seeded train", "train_number", train.Number, "train_name", train.Name)
	}

	if *demoUser {
		if err := seedDemoUser(ctx, repos); err != nil {
			slog.Error("Failed to seed demo user", "error", err)
			os.Exit(1)
		}
	}

	if !*skipSearch {
		if err := indexStations(ctx, cfg, repos); err != nil {
			slog.Warn("Station indexing skipped", "error", err)
		}
	}

	slog.Info("Seeding completed", "trains_created", seeded)
}

func seedDemoUser(ctx context.Context, repos *repository.Repositories) error {
	existing, err := repos.Users.GetByEmail(ctx, "demo@example.com")
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("Demo user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Demo User",
		Email:        "demo@example.com",
		Phone:        "9876543210",
		PasswordHash: string(hash),
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return err
	}

	slog.Info("Seeded demo user", "email", user.Email)
	return nil
}

func indexStations(ctx context.Context, cfg *config.Config, repos *repository.Repositories) error {
	index, err := search.NewStationIndex(cfg.Search)
	if err != nil {
		return err
	}

	stations, err := repos.Trains.Stations(ctx)
	if err != nil {
		return err
	}

	return index.IndexStations(ctx, stations)
}

func sampleTrains() []*models.Train {
	return []*models.Train{
		{
			Number: "12951",
			Name:   "Mumbai Rajdhani",
			Type:   "Rajdhani",
			Route: []models.RouteStop{
				{Position: 1, StationCode: "NDLS", StationName: "New Delhi", DepartureTime: "16:25", Platform: "16", Distance: 0, Day: 1},
				{Position: 2, StationCode: "KOTA", StationName: "Kota Junction", ArrivalTime: "21:05", DepartureTime: "21:10", Platform: "1", Distance: 465, Day: 1},
				{Position: 3, StationCode: "RTM", StationName: "Ratlam Junction", ArrivalTime: "00:45", DepartureTime: "00:50", Platform: "2", Distance: 726, Day: 2},
				{Position: 4, StationCode: "BRC", StationName: "Vadodara Junction", ArrivalTime: "03:03", DepartureTime: "03:13", Platform: "4", Distance: 987, Day: 2},
				{Position: 5, StationCode: "BCT", StationName: "Mumbai Central", ArrivalTime: "08:35", Platform: "3", Distance: 1384, Day: 2},
			},
			Classes: []models.TrainClass{
				{Type: "1A", Name: "First AC", TotalSeats: 18, AvailableSeats: 18, BasePrice: 500, PricePerKm: 2.5},
				{Type: "2A", Name: "Second AC", TotalSeats: 48, AvailableSeats: 48, BasePrice: 300, PricePerKm: 1.5},
				{Type: "3A", Name: "Third AC", TotalSeats: 64, AvailableSeats: 64, BasePrice: 200, PricePerKm: 0.8},
			},
			RunningDays:   []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
			TotalDistance: 1384,
			IsActive:      true,
		},
		{
			Number: "12301",
			Name:   "Howrah Rajdhani",
			Type:   "Rajdhani",
			Route: []models.RouteStop{
				{Position: 1, StationCode: "NDLS", StationName: "New Delhi", DepartureTime: "16:10", Platform: "3", Distance: 0, Day: 1},
				{Position: 2, StationCode: "CNB", StationName: "Kanpur Central", ArrivalTime: "20:40", DepartureTime: "20:45", Platform: "1", Distance: 440, Day: 1},
				{Position: 3, StationCode: "MGS", StationName: "Mughal Sarai Junction", ArrivalTime: "00:04", DepartureTime: "00:14", Platform: "5", Distance: 786, Day: 2},
				{Position: 4, StationCode: "GAYA", StationName: "Gaya Junction", ArrivalTime: "02:28", DepartureTime: "02:33", Platform: "1", Distance: 997, Day: 2},
				{Position: 5, StationCode: "HWH", StationName: "Howrah Junction", ArrivalTime: "09:55", Platform: "9", Distance: 1451, Day: 2},
			},
			Classes: []models.TrainClass{
				{Type: "1A", Name: "First AC", TotalSeats: 20, AvailableSeats: 20, BasePrice: 500, PricePerKm: 2.5},
				{Type: "2A", Name: "Second AC", TotalSeats: 52, AvailableSeats: 52, BasePrice: 300, PricePerKm: 1.5},
				{Type: "3A", Name: "Third AC", TotalSeats: 128, AvailableSeats: 128, BasePrice: 200, PricePerKm: 0.8},
			},
			RunningDays:   []string{"Monday", "Wednesday", "Thursday", "Friday", "Sunday"},
			TotalDistance: 1451,
			IsActive:      true,
		},
		{
			Number: "12626",
			Name:   "Kerala Express",
			Type:   "Superfast",
			Route: []models.RouteStop{
				{Position: 1, StationCode: "NDLS", StationName: "New Delhi", DepartureTime: "11:25", Platform: "5", Distance: 0, Day: 1},
				{Position: 2, StationCode: "AGC", StationName: "Agra Cantt", ArrivalTime: "14:10", DepartureTime: "14:15", Platform: "1", Distance: 195, Day: 1},
				{Position: 3, StationCode: "BPL", StationName: "Bhopal Junction", ArrivalTime: "20:25", DepartureTime: "20:35", Platform: "1", Distance: 702, Day: 1},
				{Position: 4, StationCode: "NGP", StationName: "Nagpur Junction", ArrivalTime: "02:00", DepartureTime: "02:10", Platform: "2", Distance: 1092, Day: 2},
				{Position: 5, StationCode: "SC", StationName: "Secunderabad Junction", ArrivalTime: "09:45", DepartureTime: "09:55", Platform: "7", Distance: 1662, Day: 2},
				{Position: 6, StationCode: "TVC", StationName: "Thiruvananthapuram Central", ArrivalTime: "13:30", Platform: "1", Distance: 3035, Day: 3},
			},
			Classes: []models.TrainClass{
				{Type: "2A", Name: "Second AC", TotalSeats: 46, AvailableSeats: 46, BasePrice: 300, PricePerKm: 1.5},
				{Type: "3A", Name: "Third AC", TotalSeats: 128, AvailableSeats: 128, BasePrice: 200, PricePerKm: 0.8},
				{Type: "SL", Name: "Sleeper", TotalSeats: 360, AvailableSeats: 360, BasePrice: 100, PricePerKm: 0.4},
			},
			RunningDays:   []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
			TotalDistance: 3035,
			IsActive:      true,
		},
		{
			Number: "12002",
			Name:   "Bhopal Shatabdi",
			Type:   "Shatabdi",
			Route: []models.RouteStop{
				{Position: 1, StationCode: "NDLS", StationName: "New Delhi", DepartureTime: "06:00", Platform: "1", Distance: 0, Day: 1},
				{Position: 2, StationCode: "AGC", StationName: "Agra Cantt", ArrivalTime: "07:57", DepartureTime: "08:00", Platform: "1", Distance: 195, Day: 1},
				{Position: 3, StationCode: "GWL", StationName: "Gwalior Junction", ArrivalTime: "09:08", DepartureTime: "09:10", Platform: "1", Distance: 313, Day: 1},
				{Position: 4, StationCode: "JHS", StationName: "Jhansi Junction", ArrivalTime: "10:11", DepartureTime: "10:19", Platform: "1", Distance: 411, Day: 1},
				{Position: 5, StationCode: "BPL", StationName: "Bhopal Junction", ArrivalTime: "13:58", Platform: "1", Distance: 702, Day: 1},
			},
			Classes: []models.TrainClass{
				{Type: "CC", Name: "Chair Car", TotalSeats: 312, AvailableSeats: 312, BasePrice: 150, PricePerKm: 1.2},
				{Type: "EC", Name: "Executive Chair Car", TotalSeats: 56, AvailableSeats: 56, BasePrice: 400, PricePerKm: 2.2},
			},
			RunningDays:   []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
			TotalDistance: 702,
			IsActive:      true,
		},
	}
}
