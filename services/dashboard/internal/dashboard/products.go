package dashboard

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

// VendorFilterAll disables the vendor dropdown filter.
const VendorFilterAll = "all"

var validate = validator.New()

// ProductForm is the add/edit product modal. ID is empty when adding.
type ProductForm struct {
	ID       string
	VendorID string `validate:"required"`
	Title    string `validate:"required"`
	Price    string `validate:"required,numeric"`
	Category string `validate:"required,oneof=Carbohydrate Protein Pastries Drinks"`
	Image    string `validate:"required"`
}

// NewProductForm returns an empty form with the default category.
func NewProductForm() ProductForm {
	return ProductForm{Category: campus.CategoryCarbohydrate}
}

// ProductFormFrom fills the form for editing an existing product.
func ProductFormFrom(p campus.Product) ProductForm {
	return ProductForm{
		ID:       p.ID,
		VendorID: p.VendorID,
		Title:    p.Title,
		Price:    p.Price.String(),
		Category: p.Category,
		Image:    p.Image,
	}
}

func (f ProductForm) IsEdit() bool {
	return f.ID != ""
}

// Validate returns the inline message for the first problem, or nil.
func (f ProductForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return userErr("All fields required", err)
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return userErr("All fields required", err)
		}
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Price":
			return userErr("Price must be a number", err)
		case "Category":
			return userErr("Choose a valid category", err)
		}
	}
	return userErr("All fields required", err)
}

// Input converts a validated form into the API body.
func (f ProductForm) Input() (campus.ProductInput, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil {
		return campus.ProductInput{}, userErr("Price must be a number", err)
	}
	return campus.ProductInput{
		VendorID: f.VendorID,
		Title:    f.Title,
		Price:    price,
		Category: f.Category,
		Image:    f.Image,
	}, nil
}

// ScopedVendors keeps the vendors of the given university.
func ScopedVendors(vendors []campus.Vendor, university string) []campus.Vendor {
	scoped := []campus.Vendor{}
	for _, v := range vendors {
		if sameUniversity(v.University, university) {
			scoped = append(scoped, v)
		}
	}
	return scoped
}

// ScopedProducts keeps a product only when its vendor is known and belongs
// to the university. Products of unknown vendors are always dropped.
func ScopedProducts(products []campus.Product, vendors []campus.Vendor, university string) []campus.Product {
	byID := make(map[string]campus.Vendor, len(vendors))
	for _, v := range vendors {
		byID[v.ID] = v
	}

	scoped := []campus.Product{}
	for _, p := range products {
		v, ok := byID[p.VendorID]
		if !ok {
			continue
		}
		if sameUniversity(v.University, university) {
			scoped = append(scoped, p)
		}
	}
	return scoped
}

// FilterProducts applies the vendor dropdown and the title search.
func FilterProducts(products []campus.Product, vendorID, search string) []campus.Product {
	needle := strings.ToLower(strings.TrimSpace(search))
	filtered := []campus.Product{}
	for _, p := range products {
		if vendorID != "" && vendorID != VendorFilterAll && p.VendorID != vendorID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

type ProductsPage struct {
	Manager      *campus.Manager
	Vendors      []campus.Vendor
	Products     []campus.Product
	VendorNames  map[string]string
	VendorFilter string
	Search       string
}

// ProductsRequest describes one render of the products page.
type ProductsRequest struct {
	VendorFilter string
	Search       string
	Fresh        bool
}

// Products loads manager, products and vendors together and scopes them by
// the manager's university.
func (s *Service) Products(ctx context.Context, scope Scope, req ProductsRequest) (ProductsPage, error) {
	page := ProductsPage{
		Vendors:      []campus.Vendor{},
		Products:     []campus.Product{},
		VendorNames:  map[string]string{},
		VendorFilter: req.VendorFilter,
		Search:       req.Search,
	}
	if page.VendorFilter == "" {
		page.VendorFilter = VendorFilterAll
	}

	if err := scope.Validate(); err != nil {
		return page, userErr("Manager not found. Please login again.", err)
	}

	var (
		manager                *campus.Manager
		products               []campus.Product
		vendors                []campus.Vendor
		managerErr, productErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		manager, managerErr = s.manager(ctx, scope, req.Fresh)
		return nil
	})
	g.Go(func() error {
		products, productErr = s.products.Current(ctx, req.Fresh, s.campus.ListProducts)
		return nil
	})
	g.Go(func() error {
		var err error
		vendors, err = s.vendors.Current(ctx, req.Fresh, s.campus.ListVendors)
		return err
	})
	vendorErr := g.Wait()

	page.Manager = manager
	university := ""
	if manager != nil {
		university = manager.University
	}

	page.Vendors = ScopedVendors(vendors, university)
	for _, v := range page.Vendors {
		page.VendorNames[v.ID] = v.StoreName
	}
	page.Products = FilterProducts(ScopedProducts(products, vendors, university), page.VendorFilter, page.Search)

	switch {
	case managerErr != nil:
		return page, managerErr
	case productErr != nil:
		return page, userErr("Failed to load products", productErr)
	case vendorErr != nil:
		return page, userErr("Failed to load vendors", vendorErr)
	}
	return page, nil
}

// SaveProduct creates or updates a product. Create prepends the stored
// product to the local list; update replaces the entry with the same id.
func (s *Service) SaveProduct(ctx context.Context, scope Scope, form ProductForm) (*campus.Product, error) {
	if err := scope.Validate(); err != nil {
		return nil, userErr("Manager not found. Please login again.", err)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	input, err := form.Input()
	if err != nil {
		return nil, err
	}

	if form.IsEdit() {
		return s.updateProduct(ctx, scope, form.ID, input)
	}
	return s.createProduct(ctx, scope, input)
}

func (s *Service) createProduct(ctx context.Context, scope Scope, input campus.ProductInput) (*campus.Product, error) {
	created, err := s.campus.CreateProduct(ctx, input)
	s.audit.LogAction(ctx, scope.ManagerID, ActionCreateProduct, input.VendorID,
		map[string]interface{}{"title": input.Title, "price": input.Price}, err)
	if err != nil {
		return nil, userErr(serverMessage(err, "Failed to save product"), err)
	}
	if created == nil {
		return nil, nil
	}

	s.products.Update(func(list []campus.Product) []campus.Product {
		out := make([]campus.Product, 0, len(list)+1)
		out = append(out, *created)
		return append(out, list...)
	})
	return created, nil
}

func (s *Service) updateProduct(ctx context.Context, scope Scope, id string, input campus.ProductInput) (*campus.Product, error) {
	updated, err := s.campus.UpdateProduct(ctx, id, input)
	s.audit.LogAction(ctx, scope.ManagerID, ActionUpdateProduct, id,
		map[string]interface{}{"title": input.Title, "price": input.Price}, err)
	if err != nil {
		return nil, userErr(serverMessage(err, "Failed to save product"), err)
	}

	var result *campus.Product
	s.products.Update(func(list []campus.Product) []campus.Product {
		out := make([]campus.Product, len(list))
		copy(out, list)
		for i := range out {
			if out[i].ID != id {
				continue
			}
			out[i] = mergeProduct(out[i], input, updated)
			merged := out[i]
			result = &merged
		}
		return out
	})

	if result == nil && updated != nil {
		result = updated
	}
	return result, nil
}

// mergeProduct overlays the server's copy on the local entry. Without a
// server copy the submitted input is applied instead.
func mergeProduct(current campus.Product, input campus.ProductInput, updated *campus.Product) campus.Product {
	if updated == nil {
		current.VendorID = input.VendorID
		current.Title = input.Title
		current.Price = campus.NewMoney(input.Price)
		current.Category = input.Category
		current.Image = input.Image
		return current
	}

	if updated.VendorID != "" {
		current.VendorID = updated.VendorID
	}
	if updated.Title != "" {
		current.Title = updated.Title
	}
	if !updated.Price.IsZero() {
		current.Price = updated.Price
	}
	if updated.Category != "" {
		current.Category = updated.Category
	}
	if updated.Image != "" {
		current.Image = updated.Image
	}
	if updated.Available != nil {
		current.Available = updated.Available
	}
	return current
}
