//go:build acceptance
// +build acceptance

package acceptance

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// TestApp is a local stand-in for the shop (login, products, cart, checkout information) and the users API.
// It lets page objects and the API client be exercised without the public deployments.
type TestApp struct {
	Server *httptest.Server
	// ShopURL serves the shop screens. The cart lives in the browser's localStorage.
	ShopURL string
	// APIURL serves /users in the reqres format.
	APIURL string

	mu      sync.Mutex
	nextID  int
	created map[string]map[string]any
}

type testUser struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

const testUsersPerPage = 6

var testUsers = func() []testUser {
	names := [][2]string{
		{"George", "Bluth"}, {"Janet", "Weaver"}, {"Emma", "Wong"}, {"Eve", "Holt"},
		{"Charles", "Morris"}, {"Tracey", "Ramos"}, {"Michael", "Lawson"}, {"Lindsay", "Ferguson"},
		{"Tobias", "Funke"}, {"Byron", "Fields"}, {"George", "Edwards"}, {"Rachel", "Howell"},
	}
	users := make([]testUser, len(names))
	for i, n := range names {
		id := i + 1
		users[i] = testUser{
			ID:        id,
			Email:     fmt.Sprintf("%s.%s@reqres.in", strings.ToLower(n[0]), strings.ToLower(n[1])),
			FirstName: n[0],
			LastName:  n[1],
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
		}
	}
	return users
}()

// NewTestApp starts the local app. It is closed automatically when the test ends.
func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	app := &TestApp{nextID: 100, created: map[string]map[string]any{}}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, loginHTML)
	})

	shopPages := map[string]string{
		"/inventory.html":         inventoryHTML(),
		"/cart.html":              cartHTML,
		"/checkout-step-one.html": checkoutStepOneHTML,
	}
	for path, page := range shopPages {
		mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, page)
		})
	}
	mux.HandleFunc("GET /shop.js", func(w http.ResponseWriter, r *http.Request) {
		products, _ := json.Marshal(testProducts)
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		fmt.Fprintf(w, "var products = %s;\n%s", products, shopJS)
	})

	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		perPage := queryInt(r, "per_page", testUsersPerPage)
		totalPages := (len(testUsers) + perPage - 1) / perPage

		start := min((page-1)*perPage, len(testUsers))
		end := min(start+perPage, len(testUsers))
		writeJSON(w, http.StatusOK, map[string]any{
			"page":        page,
			"per_page":    perPage,
			"total":       len(testUsers),
			"total_pages": totalPages,
			"data":        testUsers[start:end],
			"support": map[string]string{
				"url":  "https://contentcaddy.io",
				"text": "Tired of writing endless social media content? Let Content Caddy generate it for you.",
			},
		})
	})

	mux.HandleFunc("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id < 1 || id > len(testUsers) {
			writeJSON(w, http.StatusNotFound, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": testUsers[id-1]})
	})

	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		app.mu.Lock()
		id := strconv.Itoa(app.nextID)
		app.nextID++
		app.created[id] = body
		app.mu.Unlock()

		echo := make(map[string]any, len(body)+2)
		for k, v := range body {
			echo[k] = v
		}
		echo["id"] = id
		echo["createdAt"] = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
		writeJSON(w, http.StatusCreated, echo)
	})

	mux.HandleFunc("DELETE /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		app.mu.Lock()
		delete(app.created, r.PathValue("id"))
		app.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	app.Server = httptest.NewServer(mux)
	app.ShopURL = app.Server.URL + "/"
	app.APIURL = app.Server.URL + "/api/"
	t.Cleanup(app.Server.Close)
	return app
}

// Created returns the number of users created and not yet deleted.
func (app *TestApp) Created() int {
	app.mu.Lock()
	defer app.mu.Unlock()
	return len(app.created)
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

const loginHTML = `<!DOCTYPE html>
<html>
<head><title>Swag Labs</title></head>
<body>
<form id="login">
  <input data-test="username" placeholder="Username" autocomplete="off">
  <input data-test="password" type="password" placeholder="Password">
  <h3 data-test="error" hidden></h3>
  <input data-test="login-button" type="submit" value="Login">
</form>
<div data-test="login-credentials"><h4>Accepted usernames are:</h4>standard_user<br>locked_out_user<br></div>
<div data-test="login-password"><h4>Password for all users:</h4>secret_sauce</div>
<script>
document.getElementById("login").addEventListener("submit", function (e) {
  e.preventDefault();
  var username = document.querySelector("[data-test='username']").value;
  var password = document.querySelector("[data-test='password']").value;
  var error = document.querySelector("[data-test='error']");
  function fail(msg) { error.textContent = msg; error.hidden = false; }
  if (!username) { return fail("Epic sadface: Username is required"); }
  if (password !== "secret_sauce") { return fail("Epic sadface: Username and password do not match any user in this service"); }
  if (username === "locked_out_user") { return fail("Epic sadface: Sorry, this user has been locked out."); }
  if (username !== "standard_user") { return fail("Epic sadface: Username and password do not match any user in this service"); }
  window.location.href = "/inventory.html";
});
</script>
</body>
</html>`

type testProduct struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
}

var testProducts = []testProduct{
	{Slug: "sauce-labs-backpack", Name: "Sauce Labs Backpack", Description: "Carry all the things.", Price: "29.99", Image: "/static/media/sauce-backpack-1200x1500.jpg"},
	{Slug: "sauce-labs-bike-light", Name: "Sauce Labs Bike Light", Description: "A red light isn't the desired state in testing.", Price: "9.99", Image: "/static/media/bike-light-1200x1500.jpg"},
	{Slug: "sauce-labs-bolt-t-shirt", Name: "Sauce Labs Bolt T-Shirt", Description: "Get your testing superhero on.", Price: "15.99", Image: "/static/media/bolt-shirt-1200x1500.jpg"},
}

const shopHeader = `<div data-test="primary-header">
  <span data-test="title">%s</span>
  <a data-test="shopping-cart-link" href="/cart.html">Cart <span data-test="shopping-cart-badge" hidden></span></a>
</div>`

func inventoryHTML() string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head><title>Swag Labs</title><script src="/shop.js"></script></head>
<body>
`)
	fmt.Fprintf(&b, shopHeader, "Products")
	b.WriteString("\n<div data-test=\"inventory-list\">\n")
	for _, p := range testProducts {
		fmt.Fprintf(&b, `<div data-test="inventory-item" data-slug="%[1]s">
  <div class="inventory_item_img"><a href="#"><img src="%[5]s" alt="%[2]s"></a></div>
  <div data-test="inventory-item-name">%[2]s</div>
  <div data-test="inventory-item-desc">%[3]s</div>
  <div data-test="inventory-item-price">$%[4]s</div>
  <button data-test="add-to-cart-%[1]s" onclick="add('%[1]s')">Add to cart</button>
  <button data-test="remove-%[1]s" onclick="removeItem('%[1]s')" hidden>Remove</button>
</div>
`, p.Slug, p.Name, p.Description, p.Price, p.Image)
	}
	b.WriteString("</div>\n</body>\n</html>")
	return b.String()
}

// shopJS keeps the cart as a list of product slugs and renders the badge, grid buttons and cart lines.
const shopJS = `
function cart() { return JSON.parse(localStorage.getItem("cart") || "[]"); }
function save(items) { localStorage.setItem("cart", JSON.stringify(items)); render(); }
function add(slug) { var items = cart(); if (items.indexOf(slug) < 0) { items.push(slug); } save(items); }
function removeItem(slug) { save(cart().filter(function (s) { return s !== slug; })); }
function render() {
  var items = cart();
  var badge = document.querySelector("[data-test='shopping-cart-badge']");
  if (badge) { badge.textContent = items.length ? String(items.length) : ""; badge.hidden = items.length === 0; }
  document.querySelectorAll("[data-test='inventory-list'] [data-slug]").forEach(function (el) {
    var inCart = items.indexOf(el.dataset.slug) >= 0;
    el.querySelector("[data-test^='add-to-cart']").hidden = inCart;
    el.querySelector("[data-test^='remove']").hidden = !inCart;
  });
  var list = document.querySelector("[data-test='cart-list']");
  if (!list) { return; }
  list.innerHTML = "";
  products.filter(function (p) { return items.indexOf(p.slug) >= 0; }).forEach(function (p) {
    var line = document.createElement("div");
    line.setAttribute("data-test", "inventory-item");
    line.innerHTML = '<div data-test="item-quantity">1</div>' +
      '<div data-test="inventory-item-name"></div>' +
      '<div data-test="inventory-item-price">$' + p.price + '</div>' +
      '<button data-test="remove-' + p.slug + '">Remove</button>';
    line.querySelector("[data-test='inventory-item-name']").textContent = p.name;
    line.querySelector("button").addEventListener("click", function () { removeItem(p.slug); });
    list.appendChild(line);
  });
}
document.addEventListener("DOMContentLoaded", render);
`

const cartHTML = `<!DOCTYPE html>
<html>
<head><title>Swag Labs</title><script src="/shop.js"></script></head>
<body>
<div data-test="primary-header">
  <span data-test="title">Your Cart</span>
  <a data-test="shopping-cart-link" href="/cart.html">Cart <span data-test="shopping-cart-badge" hidden></span></a>
</div>
<div data-test="cart-list"></div>
<button data-test="continue-shopping" onclick="location.href='/inventory.html'">Continue Shopping</button>
<button data-test="checkout" onclick="location.href='/checkout-step-one.html'">Checkout</button>
</body>
</html>`

const checkoutStepOneHTML = `<!DOCTYPE html>
<html>
<head><title>Swag Labs</title></head>
<body>
<span data-test="title">Checkout: Your Information</span>
<input data-test="firstName" placeholder="First Name">
<input data-test="lastName" placeholder="Last Name">
<input data-test="postalCode" placeholder="Zip/Postal Code">
<button data-test="cancel" onclick="location.href='/cart.html'">Cancel</button>
</body>
</html>`
