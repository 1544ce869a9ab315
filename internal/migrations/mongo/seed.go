package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"mybad/pkg/model"
)

// Seed installs the initial inventory: the four courts and, when a password
// is supplied, the admin account used to manage them. Idempotent; existing
// documents are left alone.
func Seed(ctx context.Context, client *mongo.Client, dbName, adminPseudo, adminPassword string) error {
	db := client.Database(dbName)

	if err := seedCourts(ctx, db); err != nil {
		return fmt.Errorf("failed to seed courts: %w", err)
	}
	if err := seedAdmin(ctx, db, adminPseudo, adminPassword); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}

func seedCourts(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("Courts")

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("ℹ️ Courts collection already populated (%d), skipping seed\n", count)
		return nil
	}

	courts := make([]any, 0, 4)
	for _, name := range []string{"A", "B", "C", "D"} {
		courts = append(courts, model.Court{Name: name, Availability: true})
	}

	if _, err := coll.InsertMany(ctx, courts); err != nil {
		return err
	}
	fmt.Println("🏸 Seeded courts A, B, C, D")
	return nil
}

func seedAdmin(ctx context.Context, db *mongo.Database, pseudo, password string) error {
	if pseudo == "" || password == "" {
		fmt.Println("ℹ️ No admin credentials supplied, skipping admin seed")
		return nil
	}

	coll := db.Collection("Users")

	err := coll.FindOne(ctx, bson.M{"pseudo": pseudo}).Err()
	if err == nil {
		fmt.Printf("ℹ️ Admin user %s already exists, skipping\n", pseudo)
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = coll.InsertOne(ctx, model.User{
		Pseudo:   pseudo,
		Password: string(hash),
		IsAdmin:  true,
	})
	if err != nil {
		return err
	}
	fmt.Printf("🔐 Seeded admin user %s\n", pseudo)
	return nil
}
