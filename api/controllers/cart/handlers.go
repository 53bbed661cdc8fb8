package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shoppingcart/api/responses"
	"github.com/angelmondragon/shoppingcart/api/validators"
	cartsvc "github.com/angelmondragon/shoppingcart/internal/cart"
	"github.com/angelmondragon/shoppingcart/internal/catalog"
	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
)

// Opener loads the caller's cart. *cart.Manager satisfies it.
type Opener interface {
	Open(ctx context.Context, instance string) (*cartsvc.Cart, error)
}

// Finder resolves a catalog buyable. *catalog.Static satisfies it.
type Finder interface {
	Find(ctx context.Context, buyableType string, id int64) (cartsvc.Buyable, error)
}

func openCart(r *http.Request, carts Opener, logg *logger.Logger) (*cartsvc.Cart, context.Context, error) {
	ctx := r.Context()
	if carts == nil {
		return nil, ctx, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	instance, err := validators.ParseInstance(r)
	if err != nil {
		return nil, ctx, err
	}
	c, err := carts.Open(ctx, instance)
	if err != nil {
		return nil, ctx, err
	}
	if logg != nil {
		ctx = logg.WithCart(ctx, c.Identifier(), c.Instance())
	}
	return c, ctx, nil
}

// CartFetch returns the cart summary with each line's current buyable
// attached. Lines whose type has no resolver carry none.
func CartFetch(carts Opener, resolvers map[string]cartsvc.BuyableResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if len(resolvers) > 0 {
			if err := c.LoadBuyables(ctx, resolvers); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyables"))
				return
			}
		}
		responses.WriteSuccess(w, c.Summary())
	}
}

// CartAddItem resolves the buyable through the catalog and adds it.
func CartAddItem(carts Opener, finder Finder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if finder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		buyable, err := finder.Find(ctx, validators.SanitizeString(payload.BuyableType, 64), payload.BuyableID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := c.Add(ctx, buyable, payload.Quantity, payload.Attributes); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, c.Summary())
	}
}

// CartUpdateItem patches quantity and attributes of one line.
func CartUpdateItem(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")

		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == nil && payload.Attributes == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update"))
			return
		}

		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := c.Update(ctx, itemID, cartsvc.ItemPatch{
			Quantity:   payload.Quantity,
			Attributes: payload.Attributes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if item == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart item %s not found", itemID)))
			return
		}
		responses.WriteSuccess(w, c.Summary())
	}
}

// CartRemoveItem drops one line. Unknown ids succeed.
func CartRemoveItem(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := c.Remove(ctx, chi.URLParam(r, "itemID")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.Summary())
	}
}

func CartClear(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := c.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.Summary())
	}
}

// CartApplyCoupon validates the code and records it on the cart.
func CartApplyCoupon(carts Opener, validator cartsvc.CouponValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ApplyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := c.ApplyCoupon(ctx, payload.Code, validator); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.Summary())
	}
}

// CartRemoveCoupon drops the coupon metadata and its discount condition.
func CartRemoveCoupon(carts Opener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ctx, err := openCart(r, carts, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := c.RemoveCoupon(ctx, catalog.CouponCondition); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c.Summary())
	}
}
