package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"koel/internal/apperrors"
	"koel/internal/cache"
	"koel/internal/fare"
	"koel/internal/models"
)

type TrainService struct {
	trains TrainStore
	valkey *cache.ValkeyClient
}

func NewTrainService(trains TrainStore, valkey *cache.ValkeyClient) *TrainService {
	return &TrainService{trains: trains, valkey: valkey}
}

// Search finds trains between two stations on a date, with per-class
// fares for the segment. Results are served from Valkey when a booking
// or cancellation has not invalidated them since.
func (s *TrainService) Search(ctx context.Context, fromCode, toCode, date string) (*models.SearchTrainsResponse, error) {
	journeyDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid journey date %q: %w", date, err)
	}

	cacheKey := fmt.Sprintf("%s:%s:%s", fromCode, toCode, date)
	if s.valkey != nil {
		if data, ok := s.valkey.GetSearch(ctx, cacheKey); ok {
			var resp models.SearchTrainsResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	dayName := journeyDate.Weekday().String()
	trains, err := s.trains.Search(ctx, fromCode, toCode, dayName)
	if err != nil {
		return nil, err
	}

	resp := &models.SearchTrainsResponse{
		Trains: make([]models.TrainSearchResult, 0, len(trains)),
		From:   fromCode,
		To:     toCode,
		Date:   date,
	}

	for i := range trains {
		result, err := s.buildResult(&trains[i], fromCode, toCode)
		if err != nil {
			// A train matched the stop join but its route data is
			// inconsistent; skip it rather than failing the search.
			slog.Warn("Skipping train in search results",
				"train_number", trains[i].Number, "error", err)
			continue
		}
		resp.Trains = append(resp.Trains, *result)
	}
	resp.Count = len(resp.Trains)

	if s.valkey != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.valkey.SetSearch(ctx, cacheKey, data); err != nil {
				slog.Warn("Failed to cache search results", "error", err)
			}
		}
	}

	return resp, nil
}

func (s *TrainService) buildResult(train *models.Train, fromCode, toCode string) (*models.TrainSearchResult, error) {
	from := train.StopByCode(fromCode)
	to := train.StopByCode(toCode)
	if from == nil || to == nil {
		return nil, apperrors.ErrStationNotFound
	}

	distance, err := fare.Distance(train, fromCode, toCode)
	if err != nil {
		return nil, err
	}

	result := &models.TrainSearchResult{
		TrainNumber: train.Number,
		TrainName:   train.Name,
		TrainType:   train.Type,
		From: models.StopSnapshot{
			StationCode: from.StationCode,
			StationName: from.StationName,
			Time:        from.DepartureTime,
			Platform:    from.Platform,
		},
		To: models.StopSnapshot{
			StationCode: to.StationCode,
			StationName: to.StationName,
			Time:        to.ArrivalTime,
			Platform:    to.Platform,
		},
		Distance: distance,
		Classes:  make([]models.ClassFare, 0, len(train.Classes)),
	}

	for _, class := range train.Classes {
		price, err := fare.Between(train, fromCode, toCode, class.Type)
		if err != nil {
			return nil, err
		}
		result.Classes = append(result.Classes, models.ClassFare{
			Type:           class.Type,
			Name:           class.Name,
			Price:          price,
			AvailableSeats: class.AvailableSeats,
			Available:      class.AvailableSeats > 0,
		})
	}

	return result, nil
}

// Fare computes the per-passenger fare for a segment and class.
func (s *TrainService) Fare(ctx context.Context, trainNumber, fromCode, toCode, classType string) (*models.FareResponse, error) {
	train, err := s.trains.GetByNumber(ctx, trainNumber)
	if err != nil {
		return nil, err
	}
	if train == nil {
		return nil, apperrors.ErrTrainNotFound
	}

	price, err := fare.Between(train, fromCode, toCode, classType)
	if err != nil {
		return nil, err
	}

	distance, err := fare.Distance(train, fromCode, toCode)
	if err != nil {
		return nil, err
	}

	return &models.FareResponse{
		TrainNumber:       trainNumber,
		From:              fromCode,
		To:                toCode,
		ClassType:         classType,
		Distance:          distance,
		PricePerPassenger: price,
	}, nil
}

// GetByNumber returns a train with its full route and classes.
func (s *TrainService) GetByNumber(ctx context.Context, number string) (*models.Train, error) {
	train, err := s.trains.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if train == nil {
		return nil, apperrors.ErrTrainNotFound
	}
	return train, nil
}

// Stations returns the station directory.
func (s *TrainService) Stations(ctx context.Context) ([]models.Station, error) {
	return s.trains.Stations(ctx)
}
