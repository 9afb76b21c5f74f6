package db

import (
	"context"
	"fmt"
	"log"

	"github.com/vainnor/attendance-portal/models"
)

type seedCourse struct {
	course   models.Course
	students []models.EnrolledStudent
}

var demoCatalog = []seedCourse{
	{
		course: models.Course{Code: "C0511", Name: "Data Structures", Faculty: "Dr. Ramesh Kumar"},
		students: []models.EnrolledStudent{
			{RollNo: "20BCE1234", Name: "RAJESH KUMAR"},
			{RollNo: "20BCE1235", Name: "PRIYA SHARMA"},
			{RollNo: "20BCE1236", Name: "AMIT PATEL"},
			{RollNo: "20BCE1237", Name: "SNEHA REDDY"},
			{RollNo: "20BCE1238", Name: "VIKRAM SINGH"},
			{RollNo: "20BCE1239", Name: "ANITA VERMA"},
			{RollNo: "20BCE1240", Name: "SURESH BABU"},
			{RollNo: "20BCE1241", Name: "KAVYA NAIR"},
		},
	},
	{
		course: models.Course{Code: "C0512", Name: "Database Management Systems", Faculty: "Prof. Anita Sharma"},
		students: []models.EnrolledStudent{
			{RollNo: "20BCE1234", Name: "RAJESH KUMAR"},
			{RollNo: "20BCE1235", Name: "PRIYA SHARMA"},
			{RollNo: "20BCE1236", Name: "AMIT PATEL"},
			{RollNo: "20BCE1237", Name: "SNEHA REDDY"},
		},
	},
	{
		course: models.Course{Code: "C0513", Name: "Operating Systems", Faculty: "Dr. Vijay Singh"},
		students: []models.EnrolledStudent{
			{RollNo: "20BCE1234", Name: "RAJESH KUMAR"},
			{RollNo: "20BCE1235", Name: "PRIYA SHARMA"},
			{RollNo: "20BCE1236", Name: "AMIT PATEL"},
		},
	},
}

// SeedDemo loads the demo course catalog. It is idempotent.
func (s *Store) SeedDemo(ctx context.Context) error {
	for _, sc := range demoCatalog {
		if err := s.UpsertCourse(ctx, sc.course); err != nil {
			return fmt.Errorf("seed course %s: %w", sc.course.Code, err)
		}
		for _, st := range sc.students {
			if err := s.Enroll(ctx, sc.course.Code, st); err != nil {
				return fmt.Errorf("seed enrollment %s/%s: %w", sc.course.Code, st.RollNo, err)
			}
		}
	}
	log.Printf("Seeded %d demo courses", len(demoCatalog))
	return nil
}
