package friends

import (
	"context"
	"fmt"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report summarises a reconciliation pass.
type Report struct {
	UsersScanned      int  `json:"usersScanned"`
	DanglingRemoved   int  `json:"danglingRemoved"`
	BackRefsAdded     int  `json:"backRefsAdded"`
	DuplicatesRemoved int  `json:"duplicatesRemoved"`
	DryRun            bool `json:"dryRun"`
}

// Reconciler repairs friend lists left asymmetric by interrupted pair
// writes: references to deleted users are dropped and missing
// back-references are added (union repair).
type Reconciler struct {
	users users.UserRepository
	log   *logger.Scoped
}

func NewReconciler(repo users.UserRepository) *Reconciler {
	return &Reconciler{users: repo, log: logger.For("reconcile")}
}

func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*Report, error) {
	rep := &Report{DryRun: dryRun}
	// snapshot first so repairs do not disturb the scan
	lists := map[primitive.ObjectID][]primitive.ObjectID{}
	err := r.users.ForEach(ctx, func(u *models.User) error {
		lists[u.ID] = append([]primitive.ObjectID{}, u.Friends...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	rep.UsersScanned = len(lists)

	contains := func(list []primitive.ObjectID, id primitive.ObjectID) bool {
		for _, x := range list {
			if x == id {
				return true
			}
		}
		return false
	}

	for owner, friends := range lists {
		seen := map[primitive.ObjectID]bool{}
		for _, f := range friends {
			if seen[f] {
				rep.DuplicatesRemoved++
				r.log.Infof("duplicate %s in %s", f.Hex(), owner.Hex())
				if !dryRun {
					// $pull drops every copy; add one back
					if err := r.users.RemoveFriend(ctx, owner, f); err != nil {
						return rep, err
					}
					if err := r.users.AddFriend(ctx, owner, f); err != nil {
						return rep, err
					}
				}
				continue
			}
			seen[f] = true

			back, exists := lists[f]
			if !exists || f == owner {
				rep.DanglingRemoved++
				r.log.Infof("dropping dangling %s from %s", f.Hex(), owner.Hex())
				if !dryRun {
					if err := r.users.RemoveFriend(ctx, owner, f); err != nil {
						return rep, err
					}
				}
				continue
			}
			if !contains(back, owner) {
				rep.BackRefsAdded++
				r.log.Infof("adding back-reference %s -> %s", f.Hex(), owner.Hex())
				if !dryRun {
					if err := r.users.AddFriend(ctx, f, owner); err != nil {
						return rep, err
					}
				}
				lists[f] = append(back, owner)
			}
		}
	}
	return rep, nil
}
