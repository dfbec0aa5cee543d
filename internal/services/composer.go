package services

import (
	"context"
	"log/slog"
	"time"

	"aytam/internal/core"
	"aytam/internal/log"
	"aytam/internal/storage"
)

// Composer executes the multi-entity operations: family bundles, cascading
// deletes and the orphan/transaction reconciliation. Each public method is
// one unit of work.
type Composer struct {
	repo *storage.SQLiteRepository
}

func NewComposer(repo *storage.SQLiteRepository) *Composer {
	return &Composer{repo: repo}
}

// CreateDeceasedBundle inserts a deceased, their guardian and their orphans
// as one atomic unit. Each orphan gets a primary guardian link starting
// today. Duplicate national ids are rejected by pre-checks before any row is
// inserted.
func (c *Composer) CreateDeceasedBundle(ctx context.Context, d core.DeceasedInput, g core.GuardianInput, orphans []core.OrphanInput) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	if err := g.Validate(); err != nil {
		return 0, err
	}
	for _, o := range orphans {
		if err := o.Validate(); err != nil {
			return 0, err
		}
	}

	var deceasedID int64
	err := c.repo.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetDeceasedByNationalID(ctx, d.NationalID); err == nil {
			return core.Conflictf("deceased national id %s", d.NationalID)
		} else if !storage.IsNoRows(err) {
			return core.Persistencef("check deceased national id", err)
		}
		if _, err := q.GetGuardianByNationalIDExcluding(ctx, g.NationalID, 0); err == nil {
			return core.Conflictf("guardian national id %s", g.NationalID)
		} else if !storage.IsNoRows(err) {
			return core.Persistencef("check guardian national id", err)
		}

		var err error
		deceasedID, err = q.CreateDeceased(ctx, storage.CreateDeceasedParams{
			Name:        d.Name,
			NationalID:  d.NationalID,
			DateOfDeath: d.DateOfDeath,
		})
		if err != nil {
			return core.Persistencef("insert deceased", err)
		}

		guardianID, err := q.CreateGuardian(ctx, storage.CreateGuardianParams{
			Name:            g.Name,
			NationalID:      g.NationalID,
			Phone:           g.Phone,
			Relationship:    g.Relationship,
			AppointmentDate: g.AppointmentDate,
		})
		if err != nil {
			return core.Persistencef("insert guardian", err)
		}

		now := time.Now().UTC()
		for _, o := range orphans {
			orphanID, err := q.CreateOrphan(ctx, storage.CreateOrphanParams{
				Name:        o.Name,
				NationalID:  o.NationalID,
				DateOfBirth: o.DateOfBirth,
				Gender:      o.Gender,
				DeceasedID:  deceasedID,
			}, now)
			if err != nil {
				return core.Persistencef("insert orphan", err)
			}
			if _, err := q.CreateGuardianLink(ctx, storage.CreateGuardianLinkParams{
				OrphanID:   orphanID,
				GuardianID: guardianID,
				IsPrimary:  true,
				StartDate:  core.Today(),
			}); err != nil {
				return core.Persistencef("insert guardian link", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Deceased bundle created",
		log.FieldComponent, log.ComponentComposer,
		log.FieldDeceasedID, deceasedID,
		"orphans", len(orphans))
	return deceasedID, nil
}

// UpdateDeceasedBundle applies field updates to the deceased, the family's
// guardian (located through the first orphan's primary link) and the orphan
// list. Submitted orphans with a known id are updated in place, entries
// without an id are inserted and linked to the same guardian, and stored
// orphans absent from the submission are retired with their transactions,
// balances and links.
func (c *Composer) UpdateDeceasedBundle(ctx context.Context, deceasedID int64, d core.DeceasedInput, g core.GuardianInput, orphans []core.OrphanInput) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	for _, o := range orphans {
		if err := o.Validate(); err != nil {
			return err
		}
	}

	err := c.repo.WithTx(ctx, func(q *storage.Queries) error {
		deceased, err := q.GetDeceased(ctx, deceasedID)
		if storage.IsNoRows(err) {
			return core.NotFoundf("deceased %d", deceasedID)
		}
		if err != nil {
			return core.Persistencef("load deceased", err)
		}

		deceased.Name = d.Name
		deceased.NationalID = d.NationalID
		deceased.DateOfDeath = d.DateOfDeath
		if err := q.UpdateDeceased(ctx, deceased); err != nil {
			return core.Persistencef("update deceased", err)
		}

		current, err := q.ListOrphansByDeceased(ctx, deceasedID)
		if err != nil {
			return core.Persistencef("list orphans", err)
		}

		guardianID, err := familyGuardianID(ctx, q, current)
		if err != nil {
			return err
		}
		if guardianID != 0 {
			guardian, err := q.GetGuardian(ctx, guardianID)
			if err != nil {
				return core.Persistencef("load guardian", err)
			}
			if g.NationalID != guardian.NationalID {
				if _, err := q.GetGuardianByNationalIDExcluding(ctx, g.NationalID, guardian.ID); err == nil {
					return core.Conflictf("guardian national id %s", g.NationalID)
				} else if !storage.IsNoRows(err) {
					return core.Persistencef("check guardian national id", err)
				}
			}
			guardian.Name = g.Name
			guardian.NationalID = g.NationalID
			guardian.Phone = g.Phone
			guardian.Relationship = g.Relationship
			guardian.AppointmentDate = g.AppointmentDate
			if err := q.UpdateGuardian(ctx, guardian); err != nil {
				return core.Persistencef("update guardian", err)
			}
		}

		existing := make(map[int64]bool, len(current))
		for _, o := range current {
			existing[o.ID] = true
		}

		kept := make(map[int64]bool, len(orphans))
		now := time.Now().UTC()
		for _, in := range orphans {
			switch {
			case in.ID != 0 && existing[in.ID]:
				orphan, err := q.GetOrphan(ctx, in.ID)
				if err != nil {
					return core.Persistencef("load orphan", err)
				}
				orphan.Name = in.Name
				orphan.NationalID = in.NationalID
				orphan.DateOfBirth = in.DateOfBirth
				orphan.Gender = in.Gender
				if err := q.UpdateOrphanBasic(ctx, orphan); err != nil {
					return core.Persistencef("update orphan", err)
				}
				kept[in.ID] = true
			case in.ID == 0:
				orphanID, err := q.CreateOrphan(ctx, storage.CreateOrphanParams{
					Name:        in.Name,
					NationalID:  in.NationalID,
					DateOfBirth: in.DateOfBirth,
					Gender:      in.Gender,
					DeceasedID:  deceasedID,
				}, now)
				if err != nil {
					return core.Persistencef("insert orphan", err)
				}
				if guardianID != 0 {
					if _, err := q.CreateGuardianLink(ctx, storage.CreateGuardianLinkParams{
						OrphanID:   orphanID,
						GuardianID: guardianID,
						IsPrimary:  true,
						StartDate:  core.Today(),
					}); err != nil {
						return core.Persistencef("insert guardian link", err)
					}
				}
			default:
				// id supplied but belongs to another family: ignore, same as
				// an unknown grid row
			}
		}

		for _, o := range current {
			if !kept[o.ID] {
				if err := retireOrphan(ctx, q, o.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Deceased bundle updated",
		log.FieldComponent, log.ComponentComposer,
		log.FieldDeceasedID, deceasedID)
	return nil
}

// DeleteDeceasedCascade removes the deceased with every orphan, their
// transactions, balances and guardian links. The family guardian goes too,
// but only when no link anywhere in the system still points at it after the
// cascade.
func (c *Composer) DeleteDeceasedCascade(ctx context.Context, deceasedID int64) error {
	err := c.repo.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetDeceased(ctx, deceasedID); storage.IsNoRows(err) {
			return core.NotFoundf("deceased %d", deceasedID)
		} else if err != nil {
			return core.Persistencef("load deceased", err)
		}

		orphans, err := q.ListOrphansByDeceased(ctx, deceasedID)
		if err != nil {
			return core.Persistencef("list orphans", err)
		}

		guardianID, err := familyGuardianID(ctx, q, orphans)
		if err != nil {
			return err
		}

		for _, o := range orphans {
			if err := retireOrphan(ctx, q, o.ID); err != nil {
				return err
			}
		}

		if err := q.DeleteDeceased(ctx, deceasedID); err != nil {
			return core.Persistencef("delete deceased", err)
		}

		// Guardian check runs after the cascade so it sees only the links
		// that survive this delete.
		if guardianID != 0 {
			remaining, err := q.CountLinksByGuardian(ctx, guardianID)
			if err != nil {
				return core.Persistencef("count guardian links", err)
			}
			if remaining == 0 {
				if _, err := q.DeleteGuardian(ctx, guardianID); err != nil {
					return core.Persistencef("delete guardian", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Deceased cascade deleted",
		log.FieldComponent, log.ComponentComposer,
		log.FieldDeceasedID, deceasedID)
	return nil
}

// ReconcileOrphanTransactions updates the orphan's basic fields and brings
// the stored transaction list in line with the submitted one: stored ids
// missing from the submission are deleted (reversing their balance effect),
// submitted entries with an id are updated, entries without an id are
// created. One unit of work for the whole batch.
func (c *Composer) ReconcileOrphanTransactions(ctx context.Context, orphanID int64, orphan core.OrphanInput, submitted []core.TransactionInput) error {
	if err := orphan.Validate(); err != nil {
		return err
	}
	for _, t := range submitted {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	err := c.repo.WithTx(ctx, func(q *storage.Queries) error {
		stored, err := q.GetOrphan(ctx, orphanID)
		if storage.IsNoRows(err) {
			return core.NotFoundf("orphan %d", orphanID)
		}
		if err != nil {
			return core.Persistencef("load orphan", err)
		}

		stored.Name = orphan.Name
		stored.NationalID = orphan.NationalID
		stored.DateOfBirth = orphan.DateOfBirth
		stored.Gender = orphan.Gender
		if err := q.UpdateOrphanBasic(ctx, stored); err != nil {
			return core.Persistencef("update orphan", err)
		}

		storedIDs, err := q.ListTransactionIDsByOrphan(ctx, orphanID)
		if err != nil {
			return core.Persistencef("list transaction ids", err)
		}
		submittedIDs := make(map[int64]bool, len(submitted))
		for _, t := range submitted {
			if t.ID != 0 {
				submittedIDs[t.ID] = true
			}
		}

		// A row the user removed in the grid shows up only as a missing id.
		for _, id := range storedIDs {
			if submittedIDs[id] {
				continue
			}
			existing, err := q.GetTransaction(ctx, id)
			if err != nil {
				return core.Persistencef("load transaction", err)
			}
			if err := deleteTransactionTx(ctx, q, existing); err != nil {
				return err
			}
		}

		for _, t := range submitted {
			if t.ID != 0 {
				existing, err := q.GetTransaction(ctx, t.ID)
				if storage.IsNoRows(err) || (err == nil && existing.OrphanID != orphanID) {
					return core.NotFoundf("transaction %d for orphan %d", t.ID, orphanID)
				}
				if err != nil {
					return core.Persistencef("load transaction", err)
				}
				if err := updateTransactionTx(ctx, q, existing, t); err != nil {
					return err
				}
			} else {
				if _, err := createTransactionTx(ctx, q, orphanID, t); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Orphan reconciled",
		log.FieldComponent, log.ComponentComposer,
		log.FieldOrphanID, orphanID,
		"submitted", len(submitted))
	return nil
}

// UpdateGuardian applies field updates to one guardian, rejecting a national
// id held by a different guardian.
func (c *Composer) UpdateGuardian(ctx context.Context, guardianID int64, g core.GuardianInput) error {
	if err := g.Validate(); err != nil {
		return err
	}

	return c.repo.WithTx(ctx, func(q *storage.Queries) error {
		guardian, err := q.GetGuardian(ctx, guardianID)
		if storage.IsNoRows(err) {
			return core.NotFoundf("guardian %d", guardianID)
		}
		if err != nil {
			return core.Persistencef("load guardian", err)
		}

		if _, err := q.GetGuardianByNationalIDExcluding(ctx, g.NationalID, guardianID); err == nil {
			return core.Conflictf("guardian national id %s", g.NationalID)
		} else if !storage.IsNoRows(err) {
			return core.Persistencef("check guardian national id", err)
		}

		guardian.Name = g.Name
		guardian.NationalID = g.NationalID
		guardian.Phone = g.Phone
		guardian.Relationship = g.Relationship
		guardian.AppointmentDate = g.AppointmentDate
		if err := q.UpdateGuardian(ctx, guardian); err != nil {
			return core.Persistencef("update guardian", err)
		}
		return nil
	})
}

// DeleteGuardian removes a guardian and its orphan links. Orphans are kept.
func (c *Composer) DeleteGuardian(ctx context.Context, guardianID int64) error {
	return c.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.DeleteLinksByGuardian(ctx, guardianID); err != nil {
			return core.Persistencef("delete guardian links", err)
		}
		deleted, err := q.DeleteGuardian(ctx, guardianID)
		if err != nil {
			return core.Persistencef("delete guardian", err)
		}
		if deleted == 0 {
			return core.NotFoundf("guardian %d", guardianID)
		}
		return nil
	})
}

// familyGuardianID resolves "the" guardian of a family from the first
// orphan's primary link. Families with diverged guardians are out of model;
// the first link wins, matching the single-guardian-per-family assumption
// the bundle operations are specified with.
func familyGuardianID(ctx context.Context, q *storage.Queries, orphans []core.Orphan) (int64, error) {
	if len(orphans) == 0 {
		return 0, nil
	}
	link, err := q.GetPrimaryLinkForOrphan(ctx, orphans[0].ID)
	if storage.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, core.Persistencef("load primary guardian link", err)
	}
	return link.GuardianID, nil
}

// retireOrphan is the single exit path for an orphan row: transactions
// first, then balances, then guardian links, then the orphan itself. Both
// the cascade delete and the bundle-update removal go through here so no
// path can leave orphaned ledger rows behind.
func retireOrphan(ctx context.Context, q *storage.Queries, orphanID int64) error {
	if err := q.DeleteTransactionsByOrphan(ctx, orphanID); err != nil {
		return core.Persistencef("delete orphan transactions", err)
	}
	if err := q.DeleteBalancesByOrphan(ctx, orphanID); err != nil {
		return core.Persistencef("delete orphan balances", err)
	}
	if err := q.DeleteLinksByOrphan(ctx, orphanID); err != nil {
		return core.Persistencef("delete orphan links", err)
	}
	if err := q.DeleteOrphan(ctx, orphanID); err != nil {
		return core.Persistencef("delete orphan", err)
	}
	return nil
}
