package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"myweight/internal/app"
	"myweight/internal/domain"
)

type mockWeightSource struct {
	fetchFn func(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error)
}

func (m *mockWeightSource) FetchWeights(ctx context.Context, r domain.DateRange) ([]domain.WeightRecord, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, r)
	}
	return nil, nil
}

type silentError struct{}

func (silentError) Error() string { return "" }

func TestFetchRange_PassesRangeThrough(t *testing.T) {
	want := domain.DateRange{From: "20240131235959", To: "20240101000000"}
	src := &mockWeightSource{
		fetchFn: func(_ context.Context, r domain.DateRange) ([]domain.WeightRecord, error) {
			if r != want {
				t.Fatalf("unexpected range: %+v", r)
			}
			return []domain.WeightRecord{{Date: "2024/01/01", Weight: 50.5}}, nil
		},
	}
	svc := app.NewWeightService(src)
	got, err := svc.FetchRange(context.Background(), want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Weight != 50.5 {
		t.Fatalf("unexpected records: %v", got)
	}
}

func TestFetchRange_EmptyIsNonNil(t *testing.T) {
	svc := app.NewWeightService(&mockWeightSource{})
	got, err := svc.FetchRange(context.Background(), domain.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFetchRange_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", domain.ErrUnauthorized, domain.ErrUnauthorized},
		{"network", domain.ErrNetwork, domain.ErrNetwork},
		{"no message", silentError{}, domain.ErrUnexpected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &mockWeightSource{
				fetchFn: func(context.Context, domain.DateRange) ([]domain.WeightRecord, error) {
					return nil, tc.err
				},
			}
			_, err := app.NewWeightService(src).FetchRange(context.Background(), domain.DateRange{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v; want %v", err, tc.want)
			}
		})
	}
}

func TestFetchRange_Idempotent(t *testing.T) {
	src := &mockWeightSource{
		fetchFn: func(context.Context, domain.DateRange) ([]domain.WeightRecord, error) {
			return []domain.WeightRecord{
				{Date: "2024/01/01", Weight: 65.2},
				{Date: "2024/01/02", Weight: 65.1},
			}, nil
		},
	}
	svc := app.NewWeightService(src)
	r := domain.DateRange{From: "20240101000000", To: "20240131235959"}
	first, err := svc.FetchRange(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.FetchRange(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}
