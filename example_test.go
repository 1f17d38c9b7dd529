package tokenauth_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/credential"
)

func exampleEngine() *tokenauth.Engine {
	cfg := tokenauth.DefaultConfig()
	cfg.JWT.Access.Secret = []byte("example-access-secret")
	cfg.JWT.Refresh.Secret = []byte("example-refresh-secret")
	cfg.Password.BcryptCost = 4

	engine, err := tokenauth.New().
		WithConfig(cfg).
		WithStore(credential.NewMemoryStore()).
		Build()
	if err != nil {
		panic(err)
	}
	return engine
}

func ExampleEngine_Login() {
	engine := exampleEngine()
	defer engine.Close()
	ctx := context.Background()

	if err := engine.Register(ctx, "alice", "pw1"); err != nil {
		fmt.Println("register:", err)
		return
	}

	access, _, err := engine.Login(ctx, "alice", "pw1")
	if err != nil {
		fmt.Println("login:", err)
		return
	}
	claims, err := engine.ValidateAccess(ctx, access)
	if err != nil {
		fmt.Println("validate:", err)
		return
	}
	fmt.Println(claims.Name)

	_, _, err = engine.Login(ctx, "alice", "wrong")
	fmt.Println(tokenauth.KindOf(err), errors.Is(err, tokenauth.ErrInvalidCredentials))
	// Output:
	// alice
	// unauthorized true
}

func ExampleEngine_Logout() {
	engine := exampleEngine()
	defer engine.Close()
	ctx := context.Background()

	_ = engine.Register(ctx, "bob", "pw2")
	_, refresh, _ := engine.Login(ctx, "bob", "pw2")

	if _, err := engine.Refresh(ctx, refresh); err == nil {
		fmt.Println("refresh before logout: ok")
	}
	_ = engine.Logout(ctx, refresh)

	_, err := engine.Refresh(ctx, refresh)
	fmt.Println("refresh after logout:", tokenauth.KindOf(err))
	// Output:
	// refresh before logout: ok
	// refresh after logout: forbidden
}
