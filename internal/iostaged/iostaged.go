// Package iostaged reads staged record batches listed in manifest.yaml.
package iostaged

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/staged"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type iostaged struct {
	cfg      *config.Config
	validate *validator.Validate
}

// New creates a reader of the staged directory.
func New(cfg *config.Config) staged.Reader {
	v := validator.New()
	// report csv column names instead of struct fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("csv"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &iostaged{cfg: cfg, validate: v}
}

func (s *iostaged) manifestPath() string {
	return filepath.Join(s.cfg.StagedDir, config.ManifestFile)
}

// Manifest loads and checks manifest.yaml.
func (s *iostaged) Manifest() (*staged.Manifest, error) {
	path := s.manifestPath()
	data, err := iofs.ReadFile(path)
	if err != nil {
		return nil, ManifestError(path, err)
	}

	var res staged.Manifest
	if err = yaml.Unmarshal(data, &res); err != nil {
		return nil, ManifestError(path, err)
	}

	for _, b := range res.Batches {
		if err = s.validate.Struct(b); err != nil {
			return nil, ManifestError(path, err)
		}
		if err = b.Check(); err != nil {
			return nil, ManifestError(path, err)
		}
	}
	return &res, nil
}

// Read decodes all batches in parallel. Records keep manifest order.
func (s *iostaged) Read(m *staged.Manifest) (*staged.Dataset, error) {
	parts := make([]*staged.Dataset, len(m.Batches))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(s.cfg.JobsNumber, 1))
	for i, b := range m.Batches {
		g.Go(func() error {
			ds, err := s.readBatch(b)
			if err != nil {
				return err
			}
			parts[i] = ds
			slog.Debug("Read staged batch",
				"path", b.Path, "table", b.Table, "invalid", len(ds.Invalid))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &staged.Dataset{}
	for _, p := range parts {
		merge(res, p)
	}
	return res, nil
}

func (s *iostaged) batchPath(b staged.Batch) string {
	if filepath.IsAbs(b.Path) {
		return b.Path
	}
	return filepath.Join(s.cfg.StagedDir, b.Path)
}

func (s *iostaged) readBatch(b staged.Batch) (*staged.Dataset, error) {
	path := s.batchPath(b)
	ds := &staged.Dataset{}
	var err error
	switch b.Table {
	case staged.TableOperator:
		ds.Operators, ds.Invalid, err = decodeFile[staged.OperatorRecord](s.validate, b, path)
	case staged.TablePlace:
		ds.Places, ds.Invalid, err = decodeFile[staged.PlaceRecord](s.validate, b, path)
	case staged.TableRoute:
		ds.Routes, ds.Invalid, err = decodeFile[staged.RouteRecord](s.validate, b, path)
	case staged.TableRouteStop:
		ds.RouteStops, ds.Invalid, err = decodeFile[staged.RouteStopRecord](s.validate, b, path)
	case staged.TableFare:
		ds.Fares, ds.Invalid, err = decodeFile[staged.FareRecord](s.validate, b, path)
	case staged.TableCalendar:
		ds.Calendars, ds.Invalid, err = decodeFile[staged.CalendarRecord](s.validate, b, path)
	case staged.TableCalendarDate:
		ds.CalendarDates, ds.Invalid, err = decodeFile[staged.CalendarDateRecord](s.validate, b, path)
	case staged.TableTrip:
		ds.Trips, ds.Invalid, err = decodeFile[staged.TripRecord](s.validate, b, path)
	case staged.TableFrequency:
		ds.Frequencies, ds.Invalid, err = decodeFile[staged.FrequencyRecord](s.validate, b, path)
	case staged.TableStopTime:
		ds.StopTimes, ds.Invalid, err = decodeFile[staged.StopTimeRecord](s.validate, b, path)
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func merge(dst, src *staged.Dataset) {
	dst.Operators = append(dst.Operators, src.Operators...)
	dst.Places = append(dst.Places, src.Places...)
	dst.Routes = append(dst.Routes, src.Routes...)
	dst.RouteStops = append(dst.RouteStops, src.RouteStops...)
	dst.Fares = append(dst.Fares, src.Fares...)
	dst.Calendars = append(dst.Calendars, src.Calendars...)
	dst.CalendarDates = append(dst.CalendarDates, src.CalendarDates...)
	dst.Trips = append(dst.Trips, src.Trips...)
	dst.Frequencies = append(dst.Frequencies, src.Frequencies...)
	dst.StopTimes = append(dst.StopTimes, src.StopTimes...)
	dst.Invalid = append(dst.Invalid, src.Invalid...)
}
