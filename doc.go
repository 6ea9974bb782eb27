// Package users implements account management with JWT bearer
// authentication: email/password sign in, single use password recovery
// tokens, and a users directory backed by a relational store.
package users
