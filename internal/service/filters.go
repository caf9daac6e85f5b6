package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/dto"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	"github.com/noah-isme/portal-colegio-api/internal/repository"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD or RFC3339. Date-only upper bounds cover the
// whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dates must use YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseProcedureStatuses(raw string) ([]models.ProcedureStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]models.ProcedureStatus, 0, len(parts))
	for _, part := range parts {
		status := models.ProcedureStatus(strings.ToUpper(strings.TrimSpace(part)))
		if status == "" {
			continue
		}
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown procedure status "+string(status))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func procedureFilterFromQuery(query dto.ProcedureListQuery) (models.ProcedureFilter, error) {
	statuses, err := parseProcedureStatuses(query.Status)
	if err != nil {
		return models.ProcedureFilter{}, err
	}
	from, err := parseDate(query.From, false)
	if err != nil {
		return models.ProcedureFilter{}, err
	}
	to, err := parseDate(query.To, true)
	if err != nil {
		return models.ProcedureFilter{}, err
	}
	return models.ProcedureFilter{
		Status:        statuses,
		ProcedureType: strings.TrimSpace(query.ProcedureType),
		StudentID:     query.StudentID,
		AssignedTo:    query.AssignedTo,
		Unassigned:    query.Unassigned,
		Search:        strings.TrimSpace(query.Search),
		From:          from,
		To:            to,
		Limit:         query.Limit,
		Offset:        query.Offset,
	}, nil
}

// procedureScope translates an actor into the SQL-side visibility union.
func procedureScope(actor authz.Actor) repository.ProcedureScope {
	if actor.HasRole(authz.RoleAdmin) {
		return repository.ProcedureScope{All: true}
	}
	scope := repository.ProcedureScope{}
	if actor.HasRole(authz.RoleTeacher) {
		id := actor.ID
		scope.AssignedTo = &id
	}
	if actor.HasRole(authz.RoleParent) && len(actor.Students) > 0 {
		ids := make([]int64, 0, len(actor.Students))
		for id := range actor.Students {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		scope.StudentIDs = ids
	}
	return scope
}

// period validates a YYYY-MM billing period.
func period(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01", raw); err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "period must use YYYY-MM")
	}
	return raw, nil
}
