package domain

import (
	"errors"
	"testing"
)

func TestChargeRequestNormalizeAndValidate(t *testing.T) {
	req := ChargeRequest{
		Amount:      19.9,
		Description: "  Assinatura 3 Meses ",
		Client: Customer{
			Name:  " Maria Silva ",
			CPF:   "123.456.789-00",
			Email: " maria@exemplo.com ",
			Phone: "(11) 98765-4321",
		},
	}.Normalize()

	if req.Client.CPF != "12345678900" || req.Client.Phone != "11987654321" {
		t.Fatalf("digits not stripped: %+v", req.Client)
	}
	if req.Client.Name != "Maria Silva" || req.Description != "Assinatura 3 Meses" {
		t.Fatalf("spaces not trimmed: %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestChargeRequestValidateMissing(t *testing.T) {
	full := Customer{Name: "a", CPF: "1", Email: "e", Phone: "2"}
	cases := map[string]ChargeRequest{
		"zero amount":     {Amount: 0, Client: full},
		"negative amount": {Amount: -1, Client: full},
		"no name":         {Amount: 1, Client: Customer{CPF: "1", Email: "e", Phone: "2"}},
		"no cpf":          {Amount: 1, Client: Customer{Name: "a", Email: "e", Phone: "2"}},
		"no email":        {Amount: 1, Client: Customer{Name: "a", CPF: "1", Phone: "2"}},
		"no phone":        {Amount: 1, Client: Customer{Name: "a", CPF: "1", Email: "e"}},
		"punctuation cpf": ChargeRequest{Amount: 1, Client: Customer{Name: "a", CPF: "..-", Email: "e", Phone: "2"}}.Normalize(),
	}
	for name, req := range cases {
		if err := req.Validate(); !errors.Is(err, ErrMissingFields) {
			t.Errorf("%s: expected ErrMissingFields, got %v", name, err)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"abc":        "•••",
		"abcd":       "••••",
		"secret-123": "••••-123",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDomainAndCredentials(t *testing.T) {
	if got := NormalizeDomain("  Loja.Example.COM "); got != "loja.example.com" {
		t.Fatalf("NormalizeDomain = %q", got)
	}
	cred := Credential{ClientID: "id", ClientSecret: "secret"}
	if !cred.Provider().Complete() {
		t.Fatal("expected complete credentials")
	}
	if (ProviderCredentials{ClientID: "id"}).Complete() {
		t.Fatal("credentials without secret must be incomplete")
	}
}

func TestParseAppRole(t *testing.T) {
	if ParseAppRole(" ADMIN ") != AppRoleAdmin || ParseAppRole("owner") != AppRoleUser {
		t.Fatal("unexpected role parsing")
	}
	if !HasAdmin([]AppRole{AppRoleUser, AppRoleAdmin}) || HasAdmin(nil) {
		t.Fatal("unexpected HasAdmin result")
	}
}

func TestHostFromInput(t *testing.T) {
	cases := map[string]string{
		" Loja.Example.COM ":                 "loja.example.com",
		"https://Loja-X.com.br/":             "loja-x.com.br",
		"http://loja-x.com.br:8080/planos?a": "loja-x.com.br",
		"loja-x.com.br/planos":               "loja-x.com.br",
		"":                                   "",
		"https://":                           "",
	}
	for in, want := range cases {
		if got := HostFromInput(in); got != want {
			t.Errorf("HostFromInput(%q) = %q, want %q", in, got, want)
		}
	}
}
