package services

import (
	"context"
	"fmt"
	"time"

	"schoolaccounts/internal/auth"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/log"
)

// CategoryService maintains the category list and guards deletion of
// categories that transactions still reference.
type CategoryService struct {
	store       ledger.Store
	invalidator Invalidator
	policy      auth.Policy
	now         func() time.Time
}

func NewCategoryService(store ledger.Store, invalidator Invalidator) *CategoryService {
	return &CategoryService{
		store:       store,
		invalidator: invalidator,
		policy:      auth.DefaultPolicy,
		now:         time.Now,
	}
}

func (s *CategoryService) List(ctx context.Context, caller *core.Caller) ([]core.Category, error) {
	if err := s.policy.Authorize(caller, auth.CategoryRead); err != nil {
		return nil, err
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr(ctx, log.ComponentCategory, "load categories", err)
	}
	if cats == nil {
		cats = []core.Category{}
	}
	return cats, nil
}

func (s *CategoryService) Create(ctx context.Context, in core.CategoryInput, caller *core.Caller) (core.Category, error) {
	if err := s.policy.Authorize(caller, auth.CategoryCreate); err != nil {
		return core.Category{}, err
	}
	c, err := in.Parse()
	if err != nil {
		return core.Category{}, err
	}
	c.ID = core.NewID()
	c.CreatedAt = s.now().UTC()
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, storeErr(ctx, log.ComponentCategory, "create category", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentCategory).InfoContext(ctx, "Category created",
		log.FieldCategoryID, c.ID, "name", c.Name, log.FieldTxnType, c.Type)
	return c, nil
}

// Update renames or retypes a category. Reports pick up the new name at once.
func (s *CategoryService) Update(ctx context.Context, id string, in core.CategoryInput, caller *core.Caller) (core.Category, error) {
	if err := s.policy.Authorize(caller, auth.CategoryUpdate); err != nil {
		return core.Category{}, err
	}
	c, err := in.Parse()
	if err != nil {
		return core.Category{}, err
	}
	current, err := s.get(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	current.Name = c.Name
	current.Type = c.Type
	if err := s.store.UpdateCategory(ctx, current); err != nil {
		return core.Category{}, storeErr(ctx, log.ComponentCategory, "update category", err)
	}
	invalidate(s.invalidator)
	return current, nil
}

// Delete removes a category that no transaction references, voided ones
// included.
func (s *CategoryService) Delete(ctx context.Context, id string, caller *core.Caller) error {
	if err := s.policy.Authorize(caller, auth.CategoryDelete); err != nil {
		return err
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountByCategory(ctx, id)
	if err != nil {
		return storeErr(ctx, log.ComponentCategory, "delete category", err)
	}
	if n > 0 {
		return core.Conflict(fmt.Sprintf(
			"Cannot delete: %d transaction(s) use this category. Consider renaming it instead.", n))
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return storeErr(ctx, log.ComponentCategory, "delete category", err)
	}
	invalidate(s.invalidator)
	log.FromContext(ctx).WithComponent(log.ComponentCategory).InfoContext(ctx, "Category deleted",
		log.FieldCategoryID, id)
	return nil
}

func (s *CategoryService) get(ctx context.Context, id string) (core.Category, error) {
	if !core.IsUUID(id) {
		return core.Category{}, core.NotFound("Category not found")
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, storeErr(ctx, log.ComponentCategory, "load category", err)
	}
	return c, nil
}
