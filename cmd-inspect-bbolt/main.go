// Command cmd-inspect-bbolt prints what a catTrips database holds:
// for every top bucket, cat and stream or record key, how many entries it has.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/rotblauer/catTrips/logging"
	"github.com/rotblauer/catTrips/store"
)

var flagSourceDB = flag.String("source", "db/trips.db", "source database")
var flagCat = flag.String("cat", "", "only this cat")
var flagValues = flag.String("values", "", "also print every value under this key, eg. analysis/tour_model")

type bucketCount struct {
	Top, Cat, Name string
	N              int
	// First and Last are the key timestamps of the tracks buckets.
	First, Last time.Time
}

func (c bucketCount) String() string {
	s := fmt.Sprintf("%-8s %-12s %-30s %8d", c.Top, c.Cat, c.Name, c.N)
	if !c.First.IsZero() {
		s += fmt.Sprintf("  %s .. %s", c.First.UTC().Format(time.RFC3339), c.Last.UTC().Format(time.RFC3339))
	}
	return s
}

func main() {
	flag.Parse()
	logging.Init(logging.DefaultConfig())

	source, err := bolt.Open(*flagSourceDB, 0666, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		log.Fatal().Err(err).Str("source", *flagSourceDB).Msg("open")
	}
	defer source.Close()

	counts, err := summarize(source, *flagCat)
	if err != nil {
		log.Fatal().Err(err).Msg("summarize")
	}
	for _, c := range counts {
		fmt.Println(c)
	}
	if *flagValues != "" {
		if err := dumpValues(source, *flagCat, *flagValues, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("values")
		}
	}
}

// summarize walks top/<cat>/<name> buckets. cat filters when not empty.
func summarize(db *bolt.DB, cat string) ([]bucketCount, error) {
	var out []bucketCount
	err := db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(top []byte, tb *bolt.Bucket) error {
			return tb.ForEach(func(user, v []byte) error {
				ub := tb.Bucket(user)
				if v != nil || ub == nil || (cat != "" && string(user) != cat) {
					return nil
				}
				return ub.ForEach(func(name, v []byte) error {
					nb := ub.Bucket(name)
					if v != nil || nb == nil {
						return nil
					}
					c := bucketCount{Top: string(top), Cat: string(user), Name: string(name), N: nb.Stats().KeyN}
					if string(top) == "tracks" && c.N > 0 {
						cur := nb.Cursor()
						if k, _ := cur.First(); len(k) >= 8 {
							c.First = time.Unix(0, store.Btoi64(k))
						}
						if k, _ := cur.Last(); len(k) >= 8 {
							c.Last = time.Unix(0, store.Btoi64(k))
						}
					}
					out = append(out, c)
					return nil
				})
			})
		})
	})
	return out, err
}

// dumpValues writes every analysis record under key, one per line.
func dumpValues(db *bolt.DB, cat, key string, w io.Writer) error {
	return db.View(func(tx *bolt.Tx) error {
		ab := tx.Bucket([]byte("analysis"))
		if ab == nil {
			return nil
		}
		return ab.ForEach(func(user, v []byte) error {
			if v != nil || (cat != "" && string(user) != cat) {
				return nil
			}
			ub := ab.Bucket(user)
			if ub == nil {
				return nil
			}
			kb := ub.Bucket([]byte(key))
			if kb == nil {
				return nil
			}
			return kb.ForEach(func(k, v []byte) error {
				_, err := fmt.Fprintf(w, "%s %s %s\n", user, k, v)
				return err
			})
		})
	})
}
