// Package firedoc provides a Go client for hierarchical document collections
// stored in Cloud Firestore or in Redis/Valkey with the JSON module.
//
// Every query is checked before it reaches the store: at most one distinct
// field may carry a range or inequality comparator (<, <=, >, >=, !=).
// Queries breaking that rule fail with ErrInvalidFilter.
//
//	client, _ := firedoc.New(ctx, firedoc.WithFirestore("my-project"))
//	defer client.Close()
//
//	units := client.Collection("packs/base/units")
//	_ = units.Doc("archer").Set(ctx, map[string]any{"cost": 3, "tier": 1})
//
//	docs, err := units.
//	    Where("cost", "<=", 3).
//	    Where("tier", "==", 1).
//	    Limit(20).
//	    Documents(ctx)
//
//	// Two range fields: rejected without a round trip.
//	_, err = units.Where("cost", ">", 1).Where("tier", "<", 3).Documents(ctx)
//	errors.Is(err, firedoc.ErrInvalidFilter) // true
package firedoc
