package traceability

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jhoicas/granja-api/internal/domain"
	"github.com/jhoicas/granja-api/internal/domain/entity"
	"github.com/jhoicas/granja-api/internal/domain/repository"
)

// ResolveOriginNames nombres visibles (deduplicados y ordenados) de los grupos que aportaron
// a una asignación. Un grupo desconocido aparece con su id crudo.
func (uc *LossHistoryUseCase) ResolveOriginNames(ctx context.Context, results []entity.AllocationResult) ([]string, error) {
	return ResolveOriginNames(ctx, uc.directory, results)
}

// OriginTag etiqueta de origen para estampar en una venta, ej. "Aviário 1, Aviário 3".
func (uc *LossHistoryUseCase) OriginTag(ctx context.Context, results []entity.AllocationResult) (string, error) {
	names, err := uc.ResolveOriginNames(ctx, results)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

// RawOriginNames ids de grupo deduplicados y ordenados, sin consultar el directorio.
func RawOriginNames(results []entity.AllocationResult) []string {
	names, _ := ResolveOriginNames(context.Background(), nil, results)
	return names
}

// ResolveOriginNames versión sin caso de uso, para quien solo tiene el directorio.
func ResolveOriginNames(ctx context.Context, directory repository.GroupDirectory, results []entity.AllocationResult) ([]string, error) {
	resolver := newOriginResolver(directory)
	seen := make(map[string]struct{}, len(results))
	names := make([]string, 0, len(results))
	for _, r := range results {
		name, err := resolver.group(ctx, r.Origin.ProductionGroupID)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// originResolver cachea las consultas al directorio durante una operación.
type originResolver struct {
	directory repository.GroupDirectory
	cache     map[string]*entity.GroupOrigin
}

func newOriginResolver(directory repository.GroupDirectory) *originResolver {
	return &originResolver{directory: directory, cache: make(map[string]*entity.GroupOrigin)}
}

func (r *originResolver) lookup(ctx context.Context, groupID string) (*entity.GroupOrigin, error) {
	if g, ok := r.cache[groupID]; ok {
		return g, nil
	}
	var g *entity.GroupOrigin
	if r.directory != nil {
		found, err := r.directory.ResolveGroupOrigin(ctx, groupID)
		switch {
		case err == nil:
			g = found
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	r.cache[groupID] = g
	return g, nil
}

// group nombre visible del grupo o el id crudo si el directorio no lo conoce.
func (r *originResolver) group(ctx context.Context, groupID string) (string, error) {
	if groupID == "" {
		return "", nil
	}
	g, err := r.lookup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if g == nil || g.DisplayName == "" {
		return groupID, nil
	}
	return g.DisplayName, nil
}

// describe "Grupo / Jaula" cuando la jaula tiene nombre conocido.
func (r *originResolver) describe(ctx context.Context, groupID string, cageID *string) (string, error) {
	name, err := r.group(ctx, groupID)
	if err != nil || cageID == nil || *cageID == "" {
		return name, err
	}
	g, err := r.lookup(ctx, groupID)
	if err != nil {
		return "", err
	}
	cage := *cageID
	if g != nil {
		if n, ok := g.CageNames[cage]; ok && n != "" {
			cage = n
		}
	}
	if name == "" {
		return cage, nil
	}
	return name + " / " + cage, nil
}
