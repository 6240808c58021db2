// Package references verifies that every forward entity reference stored on
// the platform points at an entity that still exists.
//
// The check walks every field the platform declares as a plain entity
// reference, visits every entity carrying such a field, and compares the
// stored target of each value against the set of references that actually
// resolve for that entity. A reference is broken when no entity of the
// field's declared target type exists under the stored id; an entity of a
// different type under the same id does not count.
package references

import (
	"context"
	"fmt"
	"slices"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa"
	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = logging.Logger("qa/references")

var tracer = otel.Tracer("qa/references")

// CheckID identifies the reference integrity check in recorded results.
const CheckID = "reference_integrity"

// The check runs one step per reference field type. Only plain entity
// references are scanned today; the other two steps hold their place in the
// step sequence until the platform exposes storage for those field types.
const (
	StepEntityReference          qa.StepID = "entity_reference"
	StepDynamicEntityReference   qa.StepID = "dynamic_entity_reference"
	StepEntityReferenceRevisions qa.StepID = "entity_reference_revisions"
)

// Failure is a query failure recorded against part of the scan. The scan
// continues past it, so one unreadable entity type does not hide findings in
// the others.
type Failure struct {
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id,omitempty"`
	Error      string `json:"error"`
}

// Summary is the payload of a passing result.
type Summary struct {
	EntitiesChecked int `json:"entities_checked"`
}

// Findings is the payload of a failing result: the broken references plus
// any query failures hit along the way.
type Findings struct {
	Broken   Report    `json:"broken,omitempty"`
	Failures []Failure `json:"failures,omitempty"`
}

// API provides the reference integrity check over a platform repo.
type API struct {
	Repo Repo
}

var _ qa.Check = API{}

// Info describes the check and its step sequence.
func (a API) Info() qa.CheckInfo {
	return qa.CheckInfo{
		ID:          CheckID,
		Label:       "Reference integrity",
		Description: "Finds forward entity references whose target entity no longer exists.",
		Steps: []qa.StepID{
			StepEntityReference,
			StepDynamicEntityReference,
			StepEntityReferenceRevisions,
		},
		UsesBatch: true,
	}
}

// RunStep dispatches a runner step to its scan.
func (a API) RunStep(ctx context.Context, step qa.StepID) (*qa.Result, error) {
	switch step {
	case StepEntityReference:
		return a.CheckForwardReferences(ctx)
	case StepDynamicEntityReference:
		return a.CheckDynamicEntityReference(ctx)
	case StepEntityReferenceRevisions:
		return a.CheckEntityReferenceRevisions(ctx)
	default:
		return nil, fmt.Errorf("unknown reference step: %s", step)
	}
}

// CheckForwardReferences scans every plain entity reference value on the
// platform and reports the ones whose target does not exist. Entity types
// and fields are visited in sorted order so repeated scans of the same data
// produce the same result.
func (a API) CheckForwardReferences(ctx context.Context) (*qa.Result, error) {
	ctx, span := tracer.Start(ctx, "check-forward-references")
	defer span.End()

	configs, err := a.Repo.ListFieldStorageConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list field storage configs: %w", err)
	}
	fieldMap := BuildFieldMap(configs)

	report := make(Report)
	var failures []Failure
	checked := 0
	for _, entityType := range sortedKeys(fieldMap) {
		fields := fieldMap[entityType]
		entities, err := a.Repo.LoadEntities(ctx, entityType)
		if err != nil {
			log.Errorf("failed to load %s entities: %s", entityType, err)
			failures = append(failures, Failure{EntityType: entityType, Error: err.Error()})
			continue
		}
		for _, entity := range entities {
			if err := a.checkEntity(ctx, entity, fields, report); err != nil {
				log.Errorf("failed to check %s %d: %s", entity.EntityType(), entity.ID(), err)
				failures = append(failures, Failure{
					EntityType: entity.EntityType(),
					EntityID:   entity.ID(),
					Error:      err.Error(),
				})
				continue
			}
			checked++
		}
	}

	if report.Empty() && len(failures) == 0 {
		return &qa.Result{
			Step:    StepEntityReference,
			Passed:  true,
			Payload: Summary{EntitiesChecked: checked},
		}, nil
	}
	return &qa.Result{
		Step:    StepEntityReference,
		Passed:  false,
		Payload: Findings{Broken: report, Failures: failures},
	}, nil
}

// CheckDynamicEntityReference would cover dynamic entity reference fields,
// which may point at a different target type per value. The platform exposes
// no storage for them yet, so the step records nothing.
func (a API) CheckDynamicEntityReference(ctx context.Context) (*qa.Result, error) {
	return nil, nil
}

// CheckEntityReferenceRevisions would cover revision-tracking reference
// fields. The platform exposes no storage for them yet, so the step records
// nothing.
func (a API) CheckEntityReferenceRevisions(ctx context.Context) (*qa.Result, error) {
	return nil, nil
}

// checkEntity compares every reference value the entity holds against its
// resolved reference set. The set is fetched once, and only when the entity
// actually holds a value in one of the scanned fields.
func (a API) checkEntity(ctx context.Context, entity *model.Entity, fields map[string]string, report Report) error {
	ctx, span := tracer.Start(ctx, "check-entity", trace.WithAttributes(
		attribute.String("entity.type", entity.EntityType()),
		attribute.Int64("entity.id", entity.ID()),
	))
	defer span.End()

	var resolved map[model.Reference]struct{}
	for _, fieldName := range sortedKeys(fields) {
		values, ok := entity.Field(fieldName)
		if !ok {
			// The entity's bundle does not carry this field.
			continue
		}
		targetType := fields[fieldName]
		for _, value := range values {
			if resolved == nil {
				refs, err := a.Repo.ResolvedReferences(ctx, entity.EntityType(), entity.ID())
				if err != nil {
					return fmt.Errorf("failed to resolve references: %w", err)
				}
				resolved = make(map[model.Reference]struct{}, len(refs))
				for _, ref := range refs {
					resolved[ref] = struct{}{}
				}
			}
			target := model.Reference{TargetType: targetType, TargetID: value.TargetID}
			if _, ok := resolved[target]; !ok {
				report.Add(entity.EntityType(), entity.ID(), fieldName, value.Delta, value.TargetID)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
