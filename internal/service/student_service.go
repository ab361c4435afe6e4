package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/repository"
)

const studentListCacheKey = "students:list:v1"

var studentCSVColumns = []string{"student_id", "name", "email", "program", "year"}

// StudentService manages the student directory.
type StudentService interface {
	List(ctx context.Context) (dto.StudentListResponse, error)
	Get(ctx context.Context, studentID string) (dto.StudentResponse, error)
	Create(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	Import(ctx context.Context, r io.Reader) (dto.StudentImportReport, error)
}

type studentService struct {
	repo      repository.StudentRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(repo repository.StudentRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) StudentService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &studentService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context) (dto.StudentListResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, studentListCacheKey).Result(); err == nil && cached != "" {
			var response dto.StudentListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	students, err := s.repo.List(ctx, repository.MaxStudentListLimit)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student))
	}
	response := dto.StudentListResponse{Items: items}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, studentListCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache students")
			}
		}
	}

	return response, nil
}

func (s *studentService) Get(ctx context.Context, studentID string) (dto.StudentResponse, error) {
	student, err := s.repo.GetByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	student, err := s.upsert(ctx, req)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	s.invalidate(ctx)
	return dto.NewStudentResponse(student), nil
}

// Import upserts students from CSV. The header row is required; column order is free and
// names are case-insensitive. Invalid rows are reported and skipped.
func (s *studentService) Import(ctx context.Context, r io.Reader) (dto.StudentImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return dto.StudentImportReport{}, fmt.Errorf("%w: read header: %v", ErrInvalidCSV, err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return dto.StudentImportReport{}, err
	}

	report := dto.StudentImportReport{Rows: []dto.StudentImportRow{}}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Failed++
			report.Rows = append(report.Rows, dto.StudentImportRow{Line: line, Error: err.Error()})
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		req, err := studentFromRecord(record, columns)
		if err == nil {
			_, err = s.upsert(ctx, req)
		}

		row := dto.StudentImportRow{Line: line, StudentID: req.StudentID}
		if err != nil {
			row.Error = err.Error()
			report.Failed++
		} else {
			report.Imported++
		}
		report.Rows = append(report.Rows, row)
	}

	if report.Imported > 0 {
		s.invalidate(ctx)
	}

	s.logger.Info().Int("imported", report.Imported).Int("failed", report.Failed).Msg("student import finished")
	return report, nil
}

func (s *studentService) upsert(ctx context.Context, req dto.StudentCreateRequest) (models.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Program = strings.TrimSpace(req.Program)

	if err := s.validator.Struct(req); err != nil {
		return models.Student{}, err
	}

	student := models.Student{
		StudentID: req.StudentID,
		Name:      req.Name,
		Email:     req.Email,
		Program:   req.Program,
		Year:      req.Year,
	}
	if err := s.repo.Upsert(ctx, &student); err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (s *studentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, studentListCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate student cache")
	}
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"student_id", "name"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q (expected %s)", ErrInvalidCSV, required, strings.Join(studentCSVColumns, ","))
		}
	}
	return columns, nil
}

func studentFromRecord(record []string, columns map[string]int) (dto.StudentCreateRequest, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	req := dto.StudentCreateRequest{
		StudentID: field("student_id"),
		Name:      field("name"),
		Email:     field("email"),
		Program:   field("program"),
	}
	if raw := field("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("invalid year %q", raw)
		}
		req.Year = year
	}
	return req, nil
}

func isBlankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
