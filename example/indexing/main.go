package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plinkbed"
)

func main() {
	path := flag.String("bim", "", "Filename of the bim file to index")
	idxPath := flag.String("index", "", "Filename of the SQLite index (default: <bim>.db)")
	rsid := flag.String("rsid", "", "Optionally, look up this variant in the index")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No bim file found")
	}

	*path = expandHome(*path)

	if *idxPath == "" {
		*idxPath = *path + ".db"
	}
	*idxPath = expandHome(*idxPath)

	var idx *plinkbed.BIMIndex
	if _, err := os.Stat(*idxPath); err == nil {
		log.Println("Opening index:", *idxPath)
		if idx, err = plinkbed.OpenBIMIndex(*idxPath); err != nil {
			log.Fatalln(err)
		}
	} else {
		log.Println("Reading bim:", *path)
		variants, err := plinkbed.ReadBIM(context.Background(), *path)
		if err != nil {
			log.Fatalln(err)
		}
		if idx, err = plinkbed.CreateBIMIndex(*idxPath, *path, variants); err != nil {
			log.Fatalln(err)
		}
	}
	defer idx.Close()

	log.Printf("BIM index metadata: %+v (driver %s)\n", idx.Metadata, plinkbed.WhichSQLiteDriver())

	rows, err := idx.DB.Queryx("SELECT * FROM Variant ORDER BY variant_index ASC")
	if err != nil {
		log.Fatalln(err)
	}
	defer rows.Close()
	i := 0
	var row plinkbed.VariantIndex
	for rows.Next() {
		if err := rows.StructScan(&row); err != nil {
			log.Fatalln(err)
		}
		if i%30 == 0 {
			fmt.Printf("%d) %+v\n", i, row)
		}
		i++
	}
	rows.Close()

	log.Println("Saw indexes for", i, "variants")

	if *rsid != "" {
		v, err := idx.LookupRSID(*rsid)
		if err != nil {
			log.Fatalln(err)
		}
		log.Printf("%s is variant %d, feature coordinate %d\n", *rsid, v.Index, v.Coordinate())
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	return filepath.Join(usr.HomeDir, path[2:])
}
