package precheck

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/ndlib/s3migrate/items"
)

// A BucketHeader can tell whether a bucket exists and is reachable. *s3.S3
// is one.
type BucketHeader interface {
	HeadBucket(*s3.HeadBucketInput) (*s3.HeadBucketOutput, error)
}

// NewS3 makes an S3 client. The region and endpoint may be empty, in which
// case the usual AWS environment is used. Credentials always come from the
// environment.
func NewS3(region, endpoint string) (*s3.S3, error) {
	conf := &aws.Config{}
	if region != "" {
		conf.Region = aws.String(region)
	}
	if endpoint != "" {
		conf.Endpoint = aws.String(endpoint)
		if conf.Region == nil {
			conf.Region = aws.String("us-east-1")
		}
		// disable SSL for local development
		if strings.Contains(endpoint, "localhost") {
			conf.DisableSSL = aws.Bool(true)
			conf.S3ForcePathStyle = aws.Bool(true)
		}
	}
	sess, err := session.NewSession(conf)
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

// Bucket checks that the bucket named by the current settings can be reached.
// The migration only writes pointers to objects, so a bucket which is missing
// now would leave every new item dangling.
func Bucket(h BucketHeader, settings items.SettingsProvider) Check {
	return Check{
		Name: "bucket",
		Fn: func() error {
			s, err := settings.Settings()
			if err != nil {
				return err
			}
			if s.Bucket == "" {
				return errors.New("no bucket in settings")
			}
			_, err = h.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(s.Bucket)})
			return errors.Wrapf(err, "bucket %s", s.Bucket)
		},
	}
}
