package plinkbed

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const bimIndexSchema = `
CREATE TABLE Variant (
	chromosome    TEXT NOT NULL,
	position      INTEGER NOT NULL,
	rsid          TEXT NOT NULL,
	allele1       TEXT NOT NULL,
	allele2       TEXT NOT NULL,
	variant_index INTEGER NOT NULL PRIMARY KEY
);
CREATE INDEX Variant_rsid ON Variant (rsid);
CREATE INDEX Variant_position ON Variant (chromosome, position);
CREATE TABLE Metadata (
	filename            TEXT NOT NULL,
	number_of_variants  INTEGER NOT NULL,
	index_creation_time INTEGER NOT NULL
);
`

// BIMIndex is a SQLite index over the variants of one BIM file, for finding
// the feature coordinate of an rsID or of every variant in a region.
type BIMIndex struct {
	DB       *sqlx.DB
	Metadata *BIMMetadata
}

// VariantIndex is one row of the "Variant" table.
type VariantIndex struct {
	Chromosome string `db:"chromosome"`
	Position   uint32 `db:"position"`
	RSID       string `db:"rsid"`
	Allele1    string `db:"allele1"`
	Allele2    string `db:"allele2"`
	Index      int    `db:"variant_index"`
}

// Coordinate is the variant's feature coordinate in Data.Coordinate.
func (v VariantIndex) Coordinate() int {
	return v.Index + 1
}

// BIMMetadata is the single row of the "Metadata" table.
type BIMMetadata struct {
	Filename          string `db:"filename"`
	NVariants         int    `db:"number_of_variants"`
	IndexCreationTime Time   `db:"index_creation_time"`
}

func (b *BIMIndex) Close() error {
	return b.DB.Close()
}

func connectIndex(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html . It seems that sqlite3 permitted
	// URI filenames without the file: prefix, but that is not standard.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect(whichSQLiteDriver, path)
	if err != nil {
		return nil, ioError(err)
	}

	if err := configureIndexDB(db); err != nil {
		db.Close()
		return nil, ioError(err)
	}

	return db, nil
}

// OpenBIMIndex opens an index written by CreateBIMIndex.
func OpenBIMIndex(path string) (*BIMIndex, error) {
	db, err := connectIndex(path)
	if err != nil {
		return nil, err
	}

	idx := &BIMIndex{DB: db, Metadata: &BIMMetadata{}}
	if err := idx.DB.Get(idx.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, dataErrorf("%s is not a BIM index: %w", path, err)
	}

	return idx, nil
}

// CreateBIMIndex writes variants, as read from bimPath, to a new SQLite
// database at path.
func CreateBIMIndex(path, bimPath string, variants []Variant) (*BIMIndex, error) {
	db, err := connectIndex(path)
	if err != nil {
		return nil, err
	}

	idx := &BIMIndex{
		DB: db,
		Metadata: &BIMMetadata{
			Filename:          bimPath,
			NVariants:         len(variants),
			IndexCreationTime: Time(time.Now().Truncate(time.Second)),
		},
	}

	if err := idx.populate(variants); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

func (b *BIMIndex) populate(variants []Variant) error {
	tx, err := b.DB.Beginx()
	if err != nil {
		return ioError(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(bimIndexSchema); err != nil {
		return ioError(err)
	}

	stmt, err := tx.Preparex("INSERT INTO Variant (chromosome, position, rsid, allele1, allele2, variant_index) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return ioError(err)
	}
	defer stmt.Close()

	for _, v := range variants {
		if _, err := stmt.Exec(v.Chromosome, v.Coordinate, v.VariantID, v.Allele1, v.Allele2, v.Index); err != nil {
			return ioError(err)
		}
	}

	if _, err := tx.Exec("INSERT INTO Metadata (filename, number_of_variants, index_creation_time) VALUES (?, ?, ?)",
		b.Metadata.Filename, b.Metadata.NVariants, time.Time(b.Metadata.IndexCreationTime).Unix()); err != nil {
		return ioError(err)
	}

	if err := tx.Commit(); err != nil {
		return ioError(err)
	}
	return nil
}

// LookupRSID finds a variant by its identifier. If the identifier occurs more
// than once, the first variant in file order is returned.
func (b *BIMIndex) LookupRSID(rsid string) (VariantIndex, error) {
	var v VariantIndex
	err := b.DB.Get(&v, "SELECT * FROM Variant WHERE rsid=? ORDER BY variant_index ASC LIMIT 1", rsid)
	if errors.Is(err, sql.ErrNoRows) {
		return v, rangeErrorf("variant %s is not in %s", rsid, b.Metadata.Filename)
	} else if err != nil {
		return v, ioError(err)
	}
	return v, nil
}

// VariantsInRange returns the variants on chromosome within [first, last]
// base pairs, ordered by position.
func (b *BIMIndex) VariantsInRange(chromosome string, first, last uint32) ([]VariantIndex, error) {
	var out []VariantIndex
	if err := b.DB.Select(&out, "SELECT * FROM Variant WHERE chromosome=? AND position>=? AND position<=? ORDER BY position ASC, variant_index ASC",
		NormalizeChromosome(chromosome), first, last); err != nil {
		return nil, ioError(err)
	}
	return out, nil
}
